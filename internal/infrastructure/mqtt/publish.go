package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message and waits for the broker acknowledgement.
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (may duplicate)
//   - 2: Exactly once
//
// Example:
//
//	err := client.Publish(client.Topics().SystemStatus(), payload, 1, true)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkPublish(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishAsync sends a message without waiting. Failures are reported to
// the logger set with SetLogger.
func (c *Client) PublishAsync(topic string, payload []byte, qos byte) error {
	if err := checkPublish(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, false, payload)
	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			c.logPublishFailure(topic, ErrTimeout)
			return
		}
		if err := token.Error(); err != nil {
			c.logPublishFailure(topic, err)
		}
	}()
	return nil
}

func (c *Client) logPublishFailure(topic string, err error) {
	if logger := c.getLogger(); logger != nil {
		logger.Warn("MQTT publish failed", "topic", topic, "error", err)
	}
}

func checkPublish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	return nil
}
