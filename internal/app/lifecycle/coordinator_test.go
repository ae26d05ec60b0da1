package lifecycle

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundkite/radiobox/internal/app/player"
	"github.com/soundkite/radiobox/internal/infra/notify"
)

// fakeNotifier records notify/close calls and hands out incrementing IDs.
type fakeNotifier struct {
	mu       sync.Mutex
	nextID   uint32
	notified []notify.Notification
	closed   []uint32
	failNext bool
}

func (f *fakeNotifier) Notify(n notify.Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return 0, errors.New("notification daemon unavailable")
	}
	f.nextID++
	f.notified = append(f.notified, n)
	return f.nextID, nil
}

func (f *fakeNotifier) Close(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeNotifier) notifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified)
}

func (f *fakeNotifier) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closed)
}

// fakeStatus is a settable playback status.
type fakeStatus struct {
	mu     sync.Mutex
	status player.Status
}

func (f *fakeStatus) Status() player.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeStatus) set(s player.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func newTestCoordinator(status player.Status) (*Coordinator, *fakeNotifier, *fakeStatus) {
	n := &fakeNotifier{}
	src := &fakeStatus{status: status}
	c := NewCoordinator(src, n, Config{Title: "Radio playing", Body: "still streaming"})
	return c, n, src
}

func TestCoordinator_BackgroundWhilePlayingShowsOneTicket(t *testing.T) {
	tests := []struct {
		name   string
		target State
	}{
		{name: "background", target: StateBackground},
		{name: "inactive", target: StateInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, n, _ := newTestCoordinator(player.StatusPlaying)

			c.Transition(tt.target)

			assert.Equal(t, 1, n.notifyCount())
			assert.Equal(t, tt.target, c.AppState())
		})
	}
}

func TestCoordinator_BackgroundWhileNotPlayingShowsNothing(t *testing.T) {
	tests := []struct {
		name   string
		status player.Status
	}{
		{name: "idle", status: player.StatusIdle},
		{name: "connecting", status: player.StatusConnecting},
		{name: "error", status: player.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, n, _ := newTestCoordinator(tt.status)

			c.Transition(StateBackground)

			assert.Equal(t, 0, n.notifyCount())
		})
	}
}

func TestCoordinator_NonBoundaryTransitionIsNoop(t *testing.T) {
	c, n, _ := newTestCoordinator(player.StatusPlaying)

	c.Transition(StateBackground)
	require.Equal(t, 1, n.notifyCount())

	// Background <-> Inactive does not cross the active boundary.
	c.Transition(StateInactive)
	c.Transition(StateBackground)

	assert.Equal(t, 1, n.notifyCount())
	assert.Equal(t, 0, n.closeCount())
}

func TestCoordinator_ForegroundDismissesOutstandingTicket(t *testing.T) {
	c, n, _ := newTestCoordinator(player.StatusPlaying)

	c.Transition(StateBackground)
	c.Transition(StateActive)

	require.Equal(t, 1, n.closeCount())
	assert.Equal(t, []uint32{1}, n.closed)

	// A second return to foreground must not double-dismiss.
	c.Transition(StateBackground)
	c.Transition(StateActive)
	c.Transition(StateActive)
	assert.Equal(t, 2, n.closeCount())
}

func TestCoordinator_ForegroundWithoutTicketIsNoop(t *testing.T) {
	c, n, _ := newTestCoordinator(player.StatusIdle)

	c.Transition(StateBackground)
	c.Transition(StateActive)

	assert.Equal(t, 0, n.notifyCount())
	assert.Equal(t, 0, n.closeCount())
}

func TestCoordinator_OutstandingTicketIsNeverDuplicated(t *testing.T) {
	c, n, _ := newTestCoordinator(player.StatusPlaying)

	c.Transition(StateBackground)
	require.Equal(t, 1, n.notifyCount())

	// Defensive guard: even if another boundary crossing is observed
	// while a ticket is outstanding, no second one is created.
	c.mu.Lock()
	c.appState = StateActive
	c.mu.Unlock()
	c.Transition(StateBackground)

	assert.Equal(t, 1, n.notifyCount())
}

func TestCoordinator_NotifyFailureIsAbsorbed(t *testing.T) {
	c, n, _ := newTestCoordinator(player.StatusPlaying)
	n.failNext = true

	c.Transition(StateBackground)

	assert.Equal(t, 0, n.notifyCount())

	// No ticket was recorded, so returning to foreground dismisses nothing.
	c.Transition(StateActive)
	assert.Equal(t, 0, n.closeCount())
}

func TestCoordinator_StopEventDismissesTicket(t *testing.T) {
	c, n, src := newTestCoordinator(player.StatusPlaying)

	c.Transition(StateBackground)
	require.Equal(t, 1, n.notifyCount())

	src.set(player.StatusIdle)
	err := c.HandleEvent(player.Event{Type: player.EventStatusChanged, Status: player.StatusIdle})

	require.NoError(t, err)
	assert.Equal(t, 1, n.closeCount())
}

func TestCoordinator_TerminalFailureRaisesCriticalAlert(t *testing.T) {
	c, n, _ := newTestCoordinator(player.StatusError)

	err := c.HandleEvent(player.Event{
		Type:   player.EventTerminalFailure,
		Status: player.StatusError,
		Err:    errors.New("stream unreachable"),
	})

	require.NoError(t, err)
	require.Equal(t, 1, n.notifyCount())
	assert.Equal(t, notify.UrgencyCritical, n.notified[0].Urgency)

	// The alert is not a background ticket; foreground must not dismiss it.
	c.Transition(StateBackground)
	c.Transition(StateActive)
	assert.Equal(t, 0, n.closeCount())
}

func TestParseState(t *testing.T) {
	tests := []struct {
		input string
		want  State
		ok    bool
	}{
		{input: "active", want: StateActive, ok: true},
		{input: "inactive", want: StateInactive, ok: true},
		{input: "background", want: StateBackground, ok: true},
		{input: "suspended", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseState(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
