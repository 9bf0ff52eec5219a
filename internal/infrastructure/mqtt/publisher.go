package mqtt

import (
	"encoding/json"

	"github.com/nerrad567/sqlgate/internal/audit"
)

// ExecutionPublisher publishes audit events as JSON on
// {prefix}/executions/{outcome}. It implements audit.Sink.
type ExecutionPublisher struct {
	client *Client
	qos    byte
}

// NewExecutionPublisher returns a sink publishing through c with the
// configured QoS.
func NewExecutionPublisher(c *Client) *ExecutionPublisher {
	return &ExecutionPublisher{client: c, qos: byte(c.cfg.QoS)}
}

// Record publishes ev without waiting for the broker. Events are dropped
// while disconnected.
func (p *ExecutionPublisher) Record(ev audit.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.client.logPublishFailure(p.client.topics.Execution(ev.Outcome), err)
		return
	}
	_ = p.client.PublishAsync(p.client.topics.Execution(ev.Outcome), payload, p.qos) //nolint:errcheck // best effort; disconnected clients drop events
}
