// Package notify provides desktop notifications via D-Bus.
package notify

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title   string  // Summary text (required)
	Body    string  // Body text (optional)
	Timeout int32   // ms, -1 = server default, 0 = never expire
	Urgency Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ticket ID.
	// Returns 0 and nil error if notifications are unavailable.
	Notify(n Notification) (uint32, error)
	// Close dismisses a notification by ticket ID.
	Close(id uint32) error
}

// Disabled returns a Notifier that does nothing.
func Disabled() Notifier {
	return &stubNotifier{}
}

// stubNotifier is used when notifications are disabled or D-Bus is
// unavailable.
type stubNotifier struct{}

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return 0, nil
}

func (s *stubNotifier) Close(_ uint32) error {
	return nil
}
