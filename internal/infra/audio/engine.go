// Package audio provides the audio engine that turns a stream URL into a
// playing handle.
package audio

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/soundkite/radiobox/internal/infra/config"
)

// Engine acquires playable handles for a stream URL.
type Engine interface {
	// Acquire connects to the stream and starts playback at the given
	// volume. The returned handle is exclusively owned by the caller.
	Acquire(ctx context.Context, url string, volume float64) (Handle, error)
}

// Handle is one live audio connection.
type Handle interface {
	// SetVolume applies a volume in [0,1] to the live stream.
	SetVolume(v float64) error
	// Close stops playback and releases the connection.
	Close() error
	// Done is closed when the stream ends on its own.
	Done() <-chan struct{}
}

// New creates an engine from configuration.
func New(cfg config.EngineConfig) (Engine, error) {
	zlog.Debug().Msgf("audio: creating engine: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "", "beep":
		return newBeepEngine(cfg.Settings)
	default:
		return nil, errors.Newf("unsupported engine type: %s", cfg.Type)
	}
}
