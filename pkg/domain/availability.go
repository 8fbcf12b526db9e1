package domain

import "fmt"

// Availability is the tri-state health signal of the render service.
type Availability int

const (
	AvailabilityChecking Availability = iota
	AvailabilityOnline
	AvailabilityOffline
)

func (a Availability) String() string {
	switch a {
	case AvailabilityChecking:
		return "checking"
	case AvailabilityOnline:
		return "online"
	case AvailabilityOffline:
		return "offline"
	default:
		return fmt.Sprintf("availability(%d)", int(a))
	}
}

// MarshalText encodes the availability as its lowercase name.
func (a Availability) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a lowercase availability name.
func (a *Availability) UnmarshalText(text []byte) error {
	switch string(text) {
	case "checking":
		*a = AvailabilityChecking
	case "online":
		*a = AvailabilityOnline
	case "offline":
		*a = AvailabilityOffline
	default:
		return fmt.Errorf("unknown availability %q", text)
	}
	return nil
}

// HealthStatus is the payload returned by the render service health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
