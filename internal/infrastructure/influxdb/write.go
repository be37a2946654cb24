package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteProbeResult records a reachability probe outcome.
//
// Tags carry the low-cardinality identifiers (device id, type, probe
// method); fields carry the outcome. The write is non-blocking and
// batched, so a slow or absent InfluxDB never delays a ping response.
func (c *Client) WriteProbeResult(deviceID, deviceType, method string, reachable bool, elapsed time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"probe_results",
		map[string]string{
			"device_id": deviceID,
			"type":      deviceType,
			"method":    method,
		},
		map[string]interface{}{
			"reachable":  reachable,
			"elapsed_ms": float64(elapsed.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helpers don't
// cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
