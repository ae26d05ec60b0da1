package lifecycle

import (
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/soundkite/radiobox/internal/app/player"
	"github.com/soundkite/radiobox/internal/infra/notify"
)

// StatusSource reports the current playback status.
type StatusSource interface {
	Status() player.Status
}

// Config holds coordinator configuration.
type Config struct {
	Title string // Notification summary
	Body  string // Notification body
}

// Coordinator observes application state transitions and keeps the
// background notification in sync with playback. At most one notification
// ticket is outstanding at any time.
type Coordinator struct {
	mu sync.Mutex

	session  StatusSource
	notifier notify.Notifier
	cfg      Config

	appState State
	ticket   uint32 // 0 = no outstanding notification
}

// NewCoordinator creates a new lifecycle coordinator.
func NewCoordinator(session StatusSource, notifier notify.Notifier, cfg Config) *Coordinator {
	return &Coordinator{
		session:  session,
		notifier: notifier,
		cfg:      cfg,
		appState: StateActive,
	}
}

// AppState returns the last observed application state.
func (c *Coordinator) AppState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appState
}

// Transition records an application state change and shows or dismisses the
// background notification when the transition crosses the active/non-active
// boundary.
func (c *Coordinator) Transition(next State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.appState
	c.appState = next

	switch {
	case prev.foreground() && !next.foreground():
		if c.session.Status() != player.StatusPlaying {
			return
		}
		c.showLocked()
	case !prev.foreground() && next.foreground():
		c.dismissLocked()
	}
}

// HandleEvent reacts to player events: a stop dismisses any outstanding
// notification, a terminal failure raises a critical alert.
func (c *Coordinator) HandleEvent(e player.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case e.Type == player.EventStatusChanged && e.Status == player.StatusIdle:
		c.dismissLocked()
	case e.Type == player.EventTerminalFailure:
		c.alertLocked(e)
	}
	return nil
}

// showLocked requests a background notification unless one is already
// outstanding. Must be called with lock held.
func (c *Coordinator) showLocked() {
	if c.ticket != 0 {
		return
	}

	id, err := c.notifier.Notify(notify.Notification{
		Title:   c.cfg.Title,
		Body:    c.cfg.Body,
		Timeout: 0, // stays up until dismissed
		Urgency: notify.UrgencyLow,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("lifecycle: failed to show notification")
		return
	}
	c.ticket = id
}

// dismissLocked clears the outstanding notification, if any.
// Must be called with lock held.
func (c *Coordinator) dismissLocked() {
	if c.ticket == 0 {
		return
	}
	if err := c.notifier.Close(c.ticket); err != nil {
		zlog.Warn().Err(err).Msg("lifecycle: failed to dismiss notification")
	}
	c.ticket = 0
}

// alertLocked raises a one-shot critical alert for a terminal connection
// failure. Must be called with lock held.
func (c *Coordinator) alertLocked(e player.Event) {
	_, err := c.notifier.Notify(notify.Notification{
		Title:   "Connection Error",
		Body:    "Playback stopped: " + e.Err.Error(),
		Timeout: -1,
		Urgency: notify.UrgencyCritical,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("lifecycle: failed to show alert")
	}
}
