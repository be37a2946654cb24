// Package events publishes device lifecycle events over MQTT.
//
// The publisher implements device.EventPublisher. Each lifecycle change
// becomes one JSON message on netregistry/device/{event}; registry
// consumers subscribe instead of polling the REST API. Publishing is
// fire-and-forget from the caller's perspective: failures are logged
// and never affect the operation that triggered the event.
package events

import (
	"encoding/json"
	"time"

	"github.com/jtmorrow/netregistry/internal/device"
	"github.com/jtmorrow/netregistry/internal/infrastructure/logging"
	"github.com/jtmorrow/netregistry/internal/infrastructure/mqtt"
	"github.com/jtmorrow/netregistry/internal/probe"
)

// Publisher sends device lifecycle events to the MQTT broker.
type Publisher struct {
	client *mqtt.Client
	log    *logging.Logger
}

// NewPublisher creates a Publisher on an already-connected MQTT client.
func NewPublisher(client *mqtt.Client, log *logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		log:    log.With("component", "events"),
	}
}

// envelope is the wire shape of every lifecycle event.
type envelope struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	DeviceID  string         `json:"device_id"`
	Device    *device.Device `json:"device,omitempty"`
	Probe     *probe.Result  `json:"probe,omitempty"`
}

// DeviceCreated publishes a created event with the full device record.
func (p *Publisher) DeviceCreated(d *device.Device) {
	p.publish(mqtt.EventDeviceCreated, envelope{DeviceID: d.ID, Device: d})
}

// DeviceUpdated publishes an updated event with the post-update record.
func (p *Publisher) DeviceUpdated(d *device.Device) {
	p.publish(mqtt.EventDeviceUpdated, envelope{DeviceID: d.ID, Device: d})
}

// DeviceDeleted publishes a deleted event carrying only the id.
func (p *Publisher) DeviceDeleted(id string) {
	p.publish(mqtt.EventDeviceDeleted, envelope{DeviceID: id})
}

// DevicePinged publishes a pinged event with the refreshed record and
// the probe outcome.
func (p *Publisher) DevicePinged(d *device.Device, result probe.Result) {
	p.publish(mqtt.EventDevicePinged, envelope{DeviceID: d.ID, Device: d, Probe: &result})
}

// publish serialises and sends an event asynchronously so the API
// request that triggered it never waits on the broker.
func (p *Publisher) publish(event string, env envelope) {
	env.Event = event
	env.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(env)
	if err != nil {
		p.log.Error("marshalling event", "event", event, "error", err)
		return
	}

	go func() {
		if err := p.client.PublishEvent(mqtt.DeviceTopic(event), payload); err != nil {
			p.log.Warn("publishing event", "event", event, "device_id", env.DeviceID, "error", err)
		}
	}()
}
