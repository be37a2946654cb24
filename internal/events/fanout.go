package events

import (
	"github.com/jtmorrow/netregistry/internal/device"
	"github.com/jtmorrow/netregistry/internal/probe"
)

// Fanout delivers each lifecycle event to every wrapped publisher in order.
// It lets the service feed MQTT and the WebSocket hub through a single
// device.EventPublisher.
type Fanout []device.EventPublisher

// Combine builds a fan-out over the non-nil publishers. It returns nil when
// none are given so the service's nil check still short-circuits.
func Combine(publishers ...device.EventPublisher) device.EventPublisher {
	var out Fanout
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (f Fanout) DeviceCreated(d *device.Device) {
	for _, p := range f {
		p.DeviceCreated(d)
	}
}

func (f Fanout) DeviceUpdated(d *device.Device) {
	for _, p := range f {
		p.DeviceUpdated(d)
	}
}

func (f Fanout) DeviceDeleted(id string) {
	for _, p := range f {
		p.DeviceDeleted(id)
	}
}

func (f Fanout) DevicePinged(d *device.Device, result probe.Result) {
	for _, p := range f {
		p.DevicePinged(d, result)
	}
}
