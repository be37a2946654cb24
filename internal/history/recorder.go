// Package history records probe outcomes as time-series data.
//
// The recorder implements device.ProbeRecorder on top of the InfluxDB
// client. It is wired only when influxdb.enabled is set; otherwise the
// service runs with a nil recorder and pings leave no history.
package history

import (
	"context"
	"time"

	"github.com/jtmorrow/netregistry/internal/device"
	"github.com/jtmorrow/netregistry/internal/infrastructure/influxdb"
	"github.com/jtmorrow/netregistry/internal/probe"
)

// Recorder writes one probe_results point per ping.
type Recorder struct {
	client *influxdb.Client
}

// NewRecorder creates a Recorder on an already-connected InfluxDB client.
func NewRecorder(client *influxdb.Client) *Recorder {
	return &Recorder{client: client}
}

// RecordProbe stores a single probe outcome. Non-blocking; the write is
// batched by the InfluxDB client and failures are reported through its
// error callback.
func (r *Recorder) RecordProbe(_ context.Context, d *device.Device, result probe.Result, elapsed time.Duration) {
	r.client.WriteProbeResult(d.ID, string(d.Type), result.Method, result.Reachable, elapsed)
}
