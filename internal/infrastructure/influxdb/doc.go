// Package influxdb records gateway executions in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Each gateway call
// becomes one point in the gateway_executions measurement, tagged by
// outcome and mode, with elapsed time, row count and query size as
// fields. Dashboards can chart error rates and latency from it.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sink := audit.Multi{counters, client}
//
// # Error Handling
//
// Writes are non-blocking; batch failures are delivered to the callback
// set with SetOnError. Connection and health check errors are returned
// directly.
package influxdb
