package player

import (
	"context"
	"errors"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/soundkite/radiobox/internal/infra/audio"
)

// ErrStreamDropped reports a live stream that ended without a Stop call.
var ErrStreamDropped = errors.New("stream ended unexpectedly")

// VolumeStore persists the volume preference. Save is best-effort and must
// never block.
type VolumeStore interface {
	Save(v float64)
}

// Config holds session configuration.
type Config struct {
	StreamURL      string
	MaxRetries     int           // Automatic reconnect attempts before giving up
	RetryBaseDelay time.Duration // Attempt N waits N * RetryBaseDelay
	InitialVolume  float64
}

// Session is the playback connection state machine. It exclusively owns the
// audio handle; at most one live handle exists at any time.
//
// Every asynchronous completion (acquire result, retry timer, stream-drop
// watcher) is stamped with the generation current when it was issued and is
// discarded if the generation has moved on, so a completion arriving after
// Stop can never resurrect playback.
type Session struct {
	mu sync.Mutex

	engine audio.Engine
	prefs  VolumeStore
	cfg    Config

	status            Status
	volume            float64
	reconnectAttempts int
	handle            audio.Handle
	generation        uint64
	retryCancel       func()

	eventCh chan Event

	ctx    context.Context
	cancel context.CancelFunc

	// startTimer schedules a retry callback and returns a cancel function.
	// Replaced in tests for deterministic backoff checks.
	startTimer func(d time.Duration, fn func()) func()
}

// NewSession creates a new playback session.
func NewSession(engine audio.Engine, prefs VolumeStore, cfg Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		engine:     engine,
		prefs:      prefs,
		cfg:        cfg,
		status:     StatusIdle,
		volume:     clampVolume(cfg.InitialVolume),
		eventCh:    make(chan Event, 16),
		ctx:        ctx,
		cancel:     cancel,
		startTimer: afterFunc,
	}
}

// Events returns the event channel.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// Start requests playback. It is a no-op while a connection attempt is in
// flight or the stream is already playing. A manual start resets the retry
// budget.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusConnecting || s.status == StatusPlaying {
		return
	}

	s.reconnectAttempts = 0
	s.connectLocked()
}

// Stop requests termination. It is a no-op when already idle. Handle release
// failures are logged, not surfaced.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusIdle {
		return
	}

	s.generation++
	if s.retryCancel != nil {
		s.retryCancel()
		s.retryCancel = nil
	}
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			zlog.Warn().Err(err).Msg("player: failed to release audio handle")
		}
		s.handle = nil
	}
	s.setStatusLocked(StatusIdle)
}

// SetVolume clamps v to [0,1], applies it to the live handle if one is
// active, and persists it. Returns the clamped value.
func (s *Session) SetVolume(v float64) float64 {
	s.mu.Lock()
	applied := s.setVolumeLocked(v)
	s.mu.Unlock()

	if s.prefs != nil {
		s.prefs.Save(applied)
	}
	return applied
}

// NudgeVolume adjusts the volume by delta, clamped to [0,1]. The
// read-modify-write happens in one critical section so concurrent nudges
// cannot lose a step.
func (s *Session) NudgeVolume(delta float64) float64 {
	s.mu.Lock()
	applied := s.setVolumeLocked(s.volume + delta)
	s.mu.Unlock()

	if s.prefs != nil {
		s.prefs.Save(applied)
	}
	return applied
}

// setVolumeLocked clamps and records the volume and applies it to the live
// handle. Must be called with lock held.
func (s *Session) setVolumeLocked(v float64) float64 {
	v = clampVolume(v)
	s.volume = v
	if s.handle != nil {
		if err := s.handle.SetVolume(v); err != nil {
			zlog.Warn().Err(err).Msgf("player: failed to apply volume %.2f", v)
		}
	}
	s.sendEventLocked(Event{Type: EventVolumeChanged, Status: s.status, Volume: v})
	return v
}

// Status returns the current connection status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Volume returns the current volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Snapshot describes the session for the status readout.
type Snapshot struct {
	Status            Status
	Volume            float64
	ReconnectAttempts int
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:            s.status,
		Volume:            s.volume,
		ReconnectAttempts: s.reconnectAttempts,
	}
}

// Close tears the session down and releases any live handle.
func (s *Session) Close() {
	s.Stop()
	s.cancel()
	close(s.eventCh)
}

// connectLocked begins a connection attempt under a fresh generation.
// Must be called with lock held.
func (s *Session) connectLocked() {
	s.generation++
	gen := s.generation
	vol := s.volume
	s.setStatusLocked(StatusConnecting)

	zlog.Info().Msgf("player: connecting to %s (attempt %d)", s.cfg.StreamURL, s.reconnectAttempts)
	go s.acquire(gen, vol)
}

// acquire performs the blocking handle acquisition and applies the result if
// the session has not moved on.
func (s *Session) acquire(gen uint64, vol float64) {
	h, err := s.engine.Acquire(s.ctx, s.cfg.StreamURL, vol)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// The user stopped or restarted while this attempt was in flight.
		if h != nil {
			_ = h.Close()
		}
		return
	}

	if err != nil {
		zlog.Warn().Err(err).Msg("player: stream acquisition failed")
		s.handleFailureLocked(err)
		return
	}

	if s.handle != nil {
		_ = s.handle.Close()
	}
	s.handle = h
	// The volume may have changed while the acquisition was in flight;
	// the handle was acquired at vol, so bring it up to date.
	if s.volume != vol {
		if err := h.SetVolume(s.volume); err != nil {
			zlog.Warn().Err(err).Msgf("player: failed to apply volume %.2f", s.volume)
		}
	}
	s.reconnectAttempts = 0
	s.setStatusLocked(StatusPlaying)

	go s.watch(gen, h)
}

// watch waits for the live stream to drop and feeds it back into the retry
// policy as a transient failure.
func (s *Session) watch(gen uint64, h audio.Handle) {
	select {
	case <-h.Done():
	case <-s.ctx.Done():
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.status != StatusPlaying {
		return
	}

	zlog.Warn().Msg("player: stream dropped")
	if s.handle != nil {
		_ = s.handle.Close()
		s.handle = nil
	}
	s.handleFailureLocked(ErrStreamDropped)
}

// handleFailureLocked applies the retry policy after a failed connection.
// Must be called with lock held.
func (s *Session) handleFailureLocked(cause error) {
	s.setStatusLocked(StatusError)

	if s.reconnectAttempts >= s.cfg.MaxRetries {
		zlog.Error().Err(cause).Msgf("player: giving up after %d attempts", s.cfg.MaxRetries)
		s.sendEventLocked(Event{Type: EventTerminalFailure, Status: s.status, Err: cause})
		return
	}

	s.reconnectAttempts++
	attempt := s.reconnectAttempts
	delay := time.Duration(attempt) * s.cfg.RetryBaseDelay
	gen := s.generation

	zlog.Info().Msgf("player: retry %d/%d in %v", attempt, s.cfg.MaxRetries, delay)
	s.sendEventLocked(Event{Type: EventRetryScheduled, Status: s.status, Attempt: attempt, Delay: delay})

	s.retryCancel = s.startTimer(delay, func() {
		s.retryFired(gen)
	})
}

// retryFired runs a scheduled reconnect. A stale timer (the user stopped or
// restarted since it was scheduled) is a no-op.
func (s *Session) retryFired(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryCancel = nil
	if gen != s.generation || s.status != StatusError {
		return
	}

	s.connectLocked()
}

// setStatusLocked updates the status and emits a change event.
// Must be called with lock held.
func (s *Session) setStatusLocked(next Status) {
	if s.status == next {
		return
	}
	s.status = next
	s.sendEventLocked(Event{Type: EventStatusChanged, Status: next, Volume: s.volume})
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (s *Session) sendEventLocked(e Event) {
	select {
	case s.eventCh <- e:
	case <-s.ctx.Done():
	default:
		// Channel full, drop event
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func afterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
