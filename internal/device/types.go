package device

import "time"

// Device represents a network device tracked by the registry.
// The ip_address is the natural key: exactly one device may hold a given
// address at any time, enforced by whichever repository backend is active.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Addressing. IPv4 dotted-quad, unique across the registry.
	IPAddress string `json:"ip_address"`

	// Classification
	Type DeviceType `json:"type"`

	// Physical placement (free-form, e.g. "rack1" or "London DC, row 4").
	Location string `json:"location"`

	// Reachability
	Status      Status     `json:"status"`
	LastChecked *time.Time `json:"last_checked"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone creates an independent copy of the Device.
// Repositories hand out clones so callers can never alias stored records.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	if d.LastChecked != nil {
		t := *d.LastChecked
		cpy.LastChecked = &t
	}
	return &cpy
}

// DeviceType classifies the kind of network device.
type DeviceType string //nolint:revive // device.DeviceType is clearer than device.Type in calling code

// DeviceType constants.
const (
	TypeRouter DeviceType = "router"
	TypeSwitch DeviceType = "switch"
	TypeServer DeviceType = "server"
)

// AllDeviceTypes returns all valid device type values.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{TypeRouter, TypeSwitch, TypeServer}
}

// Status represents the last known reachability of a device.
// It is mutable via update or ping; ping sets both Status and LastChecked.
type Status string

// Status constants.
const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusUnknown Status = "unknown"
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{StatusOnline, StatusOffline, StatusUnknown}
}
