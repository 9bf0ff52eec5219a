// Package mqtt publishes the gateway's execution audit feed over MQTT.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained online/offline status with Last Will and Testament
//   - Publishing one JSON message per gateway call
//
// # Topics
//
//	{prefix}/system/status           retained, online or offline
//	{prefix}/executions/{outcome}    one audit.Event per call
//
// The prefix comes from mqtt.topic_prefix (default "sqlgate").
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) outside local development
//   - Events never contain query text or secrets
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sink := audit.Multi{counters, mqtt.NewExecutionPublisher(client)}
package mqtt
