package device

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

// Recognised payload fields. Everything else (id, timestamps, last_checked)
// is server-managed and rejected as an unknown field.
var payloadFields = map[string]struct{}{
	"name":       {},
	"ip_address": {},
	"type":       {},
	"location":   {},
	"status":     {},
}

// requiredFields lists fields a full (non-partial) payload must carry.
var requiredFields = []string{"name", "ip_address", "type", "location", "status"}

var (
	validTypes    map[DeviceType]struct{}
	validStatuses map[Status]struct{}
)

func init() {
	validTypes = make(map[DeviceType]struct{}, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		validTypes[t] = struct{}{}
	}
	validStatuses = make(map[Status]struct{}, len(AllStatuses()))
	for _, s := range AllStatuses() {
		validStatuses[s] = struct{}{}
	}
}

// Fields holds the validated, normalized values extracted from a payload.
// Pointers are nil for fields the payload did not carry; strings are trimmed.
type Fields struct {
	Name      *string
	IPAddress *string
	Type      *DeviceType
	Status    *Status
	Location  *string
}

// IsEmpty reports whether no recognised field was present.
func (f *Fields) IsEmpty() bool {
	return f.Name == nil && f.IPAddress == nil && f.Type == nil &&
		f.Status == nil && f.Location == nil
}

// ValidatePayload checks an incoming device payload and extracts its fields.
//
// With partial=false every required field must be present; with partial=true
// only the fields present are validated. Unknown keys are always rejected.
// On failure the returned error is a *ValidationError keyed by field name.
//
// Parameters:
//   - payload: decoded JSON object, field name to raw value
//   - partial: true for update payloads, false for create payloads
//
// Returns:
//   - *Fields: normalized values for the fields present (nil on error)
//   - error: *ValidationError describing every failing field, or nil
func ValidatePayload(payload map[string]any, partial bool) (*Fields, error) {
	errs := make(map[string]string)

	var unknown []string
	for k := range payload {
		if _, ok := payloadFields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs["additional_properties"] = "Unknown fields: " + strings.Join(unknown, ", ")
	}

	if !partial {
		for _, f := range requiredFields {
			if _, ok := payload[f]; !ok {
				errs[f] = "Missing required field"
			}
		}
	}

	fields := &Fields{}

	if raw, ok := payload["name"]; ok {
		if s, ok := nonEmptyString(raw); ok {
			fields.Name = &s
		} else {
			errs["name"] = "Name must be a non-empty string"
		}
	}

	if raw, ok := payload["ip_address"]; ok {
		s, _ := raw.(string)
		s = strings.TrimSpace(s)
		switch addr, err := netip.ParseAddr(s); {
		case err != nil:
			errs["ip_address"] = "Invalid IP address format"
		case !addr.Is4():
			errs["ip_address"] = "IPv6 not supported; provide IPv4"
		default:
			fields.IPAddress = &s
		}
	}

	if raw, ok := payload["type"]; ok {
		s, _ := raw.(string)
		t := DeviceType(s)
		if _, valid := validTypes[t]; valid {
			fields.Type = &t
		} else {
			errs["type"] = "Invalid type. Allowed: " + joinSorted(typeStrings())
		}
	}

	if raw, ok := payload["status"]; ok {
		s, _ := raw.(string)
		st := Status(s)
		if _, valid := validStatuses[st]; valid {
			fields.Status = &st
		} else {
			errs["status"] = "Invalid status. Allowed: " + joinSorted(statusStrings())
		}
	}

	if raw, ok := payload["location"]; ok {
		if s, ok := nonEmptyString(raw); ok {
			fields.Location = &s
		} else {
			errs["location"] = "Location must be a non-empty string"
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return fields, nil
}

// ValidateID checks that id is a well-formed device identifier.
// Identifiers are 36-character lowercase hyphenated UUID strings.
func ValidateID(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
	}
	for i, c := range id {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
			}
		default:
			if !isHexLower(c) {
				return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
			}
		}
	}
	return nil
}

func isHexLower(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// nonEmptyString extracts a trimmed string from a raw JSON value,
// reporting false for non-strings and whitespace-only values.
func nonEmptyString(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

func typeStrings() []string {
	out := make([]string, 0, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		out = append(out, string(t))
	}
	return out
}

func statusStrings() []string {
	out := make([]string, 0, len(AllStatuses()))
	for _, s := range AllStatuses() {
		out = append(out, string(s))
	}
	return out
}

func joinSorted(vals []string) string {
	sort.Strings(vals)
	return strings.Join(vals, ", ")
}
