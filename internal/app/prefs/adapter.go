// Package prefs adapts the durable key-value store for the volume
// preference.
package prefs

import (
	"strconv"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

const (
	volumeKey = "radio_volume"

	// DefaultVolume is used when no valid stored value exists.
	DefaultVolume = 0.7

	// Writes are debounced so a continuous volume drag does not hammer
	// the store.
	saveDebounce = 500 * time.Millisecond
)

// Store is the opaque string key-value store the volume is persisted in.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Adapter loads and saves the volume preference. Save is best-effort and
// fire-and-forget; failures are logged and never surfaced.
type Adapter struct {
	store Store

	mu        sync.Mutex
	saveTimer *time.Timer
	pending   *float64
}

// NewAdapter creates a new preference adapter.
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Load reads the persisted volume. The bool result reports whether a usable
// value was found; callers keep their compiled-in default otherwise.
func (a *Adapter) Load() (float64, bool) {
	raw, ok, err := a.store.Get(volumeKey)
	if err != nil {
		zlog.Warn().Err(err).Msg("prefs: failed to read volume")
		return 0, false
	}
	if !ok {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		zlog.Warn().Msgf("prefs: ignoring stored volume %q", raw)
		return 0, false
	}
	return v, true
}

// Save schedules the volume for persistence. It returns immediately; the
// write happens after the debounce window.
func (a *Adapter) Save(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = &v

	if a.saveTimer != nil {
		a.saveTimer.Stop()
	}
	a.saveTimer = time.AfterFunc(saveDebounce, a.flush)
}

// Close flushes any pending write.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.saveTimer != nil {
		a.saveTimer.Stop()
	}
	a.mu.Unlock()

	a.flush()
}

// flush writes the pending value, if any.
func (a *Adapter) flush() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending == nil {
		return
	}
	value := strconv.FormatFloat(*pending, 'f', -1, 64)
	if err := a.store.Set(volumeKey, value); err != nil {
		zlog.Warn().Err(err).Msg("prefs: failed to save volume")
	}
}
