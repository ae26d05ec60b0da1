package player

import "time"

// EventType represents a player event type.
type EventType int

const (
	EventStatusChanged   EventType = iota // Connection status changed
	EventVolumeChanged                    // Volume was set
	EventRetryScheduled                   // A reconnect attempt was scheduled
	EventTerminalFailure                  // Retry budget exhausted, user action required
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStatusChanged:
		return "status_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventRetryScheduled:
		return "retry_scheduled"
	case EventTerminalFailure:
		return "terminal_failure"
	default:
		return "unknown"
	}
}

// Event represents a player event.
type Event struct {
	Type    EventType
	Status  Status        // Status at the time of the event
	Volume  float64       // Set for EventVolumeChanged
	Attempt int           // Set for EventRetryScheduled
	Delay   time.Duration // Set for EventRetryScheduled
	Err     error         // Set for EventTerminalFailure
}
