// Package influxdb records probe history in InfluxDB v2.
//
// Every ping produces one probe_results point: device id, type and
// probe method as tags, reachability and elapsed time as fields. This
// gives operators uptime and latency history per device without the
// registry itself keeping time-series state.
//
// The integration is optional (influxdb.enabled in config). Writes are
// batched and non-blocking; failures surface through SetOnError and are
// logged, never propagated to the ping caller.
package influxdb
