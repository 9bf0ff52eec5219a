// Package audit records the outcome of every gateway call.
//
// The gateway handler builds one Event per request and hands it to a
// Sink. Sinks must not block the request: the in-memory Counters update
// atomically, and the InfluxDB and MQTT sinks in internal/infrastructure
// queue or publish asynchronously.
//
// Events never carry query text or secrets, only their sizes.
package audit
