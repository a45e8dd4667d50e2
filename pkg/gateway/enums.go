package gateway

// RouteStatus describes the outcome of routing a single envelope.
type RouteStatus int

const (
	// RouteStatusUnknown is the zero value for an unrouted envelope.
	RouteStatusUnknown RouteStatus = iota
	// RouteStatusDelivered indicates the recipient was online and the
	// envelope was handed over or staged for pickup.
	RouteStatusDelivered
	// RouteStatusQueued indicates the recipient was offline and the
	// envelope waits in its queue.
	RouteStatusQueued
)

// String returns the string representation of the route status.
func (s RouteStatus) String() string {
	switch s {
	case RouteStatusDelivered:
		return "DELIVERED"
	case RouteStatusQueued:
		return "QUEUED"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the route status is a known valid status.
func (s RouteStatus) IsValid() bool {
	return s == RouteStatusDelivered || s == RouteStatusQueued
}
