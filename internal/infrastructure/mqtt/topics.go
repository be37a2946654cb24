package mqtt

import "fmt"

// Topic scheme: netregistry/{category}/...
//
// Device lifecycle events are published to netregistry/device/{event},
// one topic per event kind, with the device id inside the JSON payload.
// Consumers subscribe to netregistry/device/+ for everything or to a
// single event topic.
const (
	// TopicPrefix is the base for all registry topics.
	TopicPrefix = "netregistry"

	// TopicSystemStatus carries the registry's online/offline status,
	// retained so new subscribers see the current state.
	TopicSystemStatus = TopicPrefix + "/system/status"
)

// Device lifecycle event names.
const (
	EventDeviceCreated = "created"
	EventDeviceUpdated = "updated"
	EventDeviceDeleted = "deleted"
	EventDevicePinged  = "pinged"
)

// DeviceTopic returns the topic for a device lifecycle event.
//
// Example: netregistry/device/created
func DeviceTopic(event string) string {
	return fmt.Sprintf("%s/device/%s", TopicPrefix, event)
}
