// Package player provides the playback connection state machine.
package player

// Status represents the playback connection status.
type Status int

const (
	StatusIdle       Status = iota // No connection, ready to play
	StatusConnecting               // Acquiring a stream handle
	StatusPlaying                  // Stream is playing
	StatusError                    // Last connection attempt failed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusPlaying:
		return "playing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Text returns the user-facing status readout.
func (s Status) Text() string {
	switch s {
	case StatusIdle:
		return "Ready"
	case StatusConnecting:
		return "Connecting…"
	case StatusPlaying:
		return "Connected"
	case StatusError:
		return "Connection Error"
	default:
		return "Unknown"
	}
}

// Color returns the display color associated with the status.
func (s Status) Color() string {
	switch s {
	case StatusIdle:
		return "gray"
	case StatusConnecting:
		return "orange"
	case StatusPlaying:
		return "green"
	case StatusError:
		return "red"
	default:
		return "gray"
	}
}
