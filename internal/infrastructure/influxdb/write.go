package influxdb

import (
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/sqlgate/internal/audit"
)

// measurementExecutions holds one point per gateway call.
const measurementExecutions = "gateway_executions"

// Record queues ev as a point. It does nothing while disconnected.
//
// Example line protocol:
//
//	gateway_executions,outcome=ok,single=true elapsed_secs=0.0012,rows=3i,query_length=42i,client_ip="10.0.0.4"
func (c *Client) Record(ev audit.Event) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(executionPoint(ev))
}

// executionPoint maps an event to a point. Only low-cardinality values are
// tags; the client address is a field.
func executionPoint(ev audit.Event) *write.Point {
	return write.NewPoint(
		measurementExecutions,
		map[string]string{
			"outcome": string(ev.Outcome),
			"single":  strconv.FormatBool(ev.Single),
		},
		map[string]interface{}{
			"elapsed_secs": ev.Elapsed.Seconds(),
			"rows":         int64(ev.Rows),
			"query_length": int64(ev.QueryLength),
			"client_ip":    ev.ClientIP,
		},
		ev.Time,
	)
}
