package audio

import (
	"context"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/mitchellh/mapstructure"
)

// beepSettings configures the beep engine.
type beepSettings struct {
	BufferMs                 int     `mapstructure:"buffer_ms" default:"250" validate:"gte=20,lte=2000"`
	MinVolumeDB              float64 `mapstructure:"min_volume_db" default:"-10" validate:"lt=0"`
	VolumeCurve              float64 `mapstructure:"volume_curve" default:"0.5" validate:"gt=0,lte=1"`
	DialTimeoutSec           int     `mapstructure:"dial_timeout_sec" default:"10" validate:"gte=1"`
	ResponseHeaderTimeoutSec int     `mapstructure:"response_header_timeout_sec" default:"15" validate:"gte=1"`
}

// beepEngine streams MP3 audio over HTTP and plays it through the system
// speaker via gopxl/beep.
type beepEngine struct {
	settings beepSettings
	client   *http.Client

	mu sync.Mutex
	// speakerRate is the rate the speaker was initialized with; later
	// streams with a different rate are resampled to it.
	speakerRate beep.SampleRate
}

func newBeepEngine(settings map[string]any) (*beepEngine, error) {
	if settings == nil {
		settings = map[string]any{}
	}

	var s beepSettings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode engine settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set engine defaults")
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, errors.Wrap(err, "invalid engine settings")
	}

	client := &http.Client{
		Timeout: 0, // streams are long-lived
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: time.Duration(s.DialTimeoutSec) * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   time.Duration(s.DialTimeoutSec) * time.Second,
			ResponseHeaderTimeout: time.Duration(s.ResponseHeaderTimeoutSec) * time.Second,
			DisableCompression:    true,
		},
	}

	return &beepEngine{settings: s, client: client}, nil
}

// Acquire connects to the stream URL and starts playback.
func (e *beepEngine) Acquire(ctx context.Context, url string, volume float64) (Handle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build stream request")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to stream")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("unexpected stream response: %s", resp.Status)
	}

	streamer, format, err := mp3.Decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, errors.Wrap(err, "failed to decode stream")
	}

	if err := e.ensureSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		resp.Body.Close()
		return nil, err
	}

	var src beep.Streamer = streamer
	e.mu.Lock()
	if format.SampleRate != e.speakerRate {
		src = beep.Resample(4, format.SampleRate, e.speakerRate, streamer)
	}
	e.mu.Unlock()

	vol := &effects.Volume{
		Streamer: src,
		Base:     2,
		Volume:   e.gain(volume),
		Silent:   volume <= 0,
	}

	h := &beepHandle{
		engine:   e,
		vol:      vol,
		streamer: streamer,
		body:     resp.Body,
		done:     make(chan struct{}),
	}

	speaker.Play(beep.Seq(vol, beep.Callback(h.markDone)))
	return h, nil
}

// ensureSpeaker initializes the speaker once, with the first stream's
// sample rate.
func (e *beepEngine) ensureSpeaker(rate beep.SampleRate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.speakerRate != 0 {
		return nil
	}

	bufferSize := rate.N(time.Duration(e.settings.BufferMs) * time.Millisecond)
	if err := speaker.Init(rate, bufferSize); err != nil {
		return errors.Wrap(err, "failed to initialize speaker")
	}
	e.speakerRate = rate
	return nil
}

// gain maps a linear volume in [0,1] to a dB exponent for effects.Volume.
// The pow curve keeps the low end of the dial usable.
func (e *beepEngine) gain(v float64) float64 {
	if v <= 0 {
		return e.settings.MinVolumeDB
	}
	if v >= 1 {
		return 0
	}
	return (1 - math.Pow(v, e.settings.VolumeCurve)) * e.settings.MinVolumeDB
}

// beepHandle is one live stream connection.
type beepHandle struct {
	engine   *beepEngine
	vol      *effects.Volume
	streamer beep.StreamSeekCloser
	body     io.ReadCloser

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

func (h *beepHandle) markDone() {
	h.doneOnce.Do(func() { close(h.done) })
}

// Done is closed when the stream ends on its own.
func (h *beepHandle) Done() <-chan struct{} {
	return h.done
}

// SetVolume applies a volume in [0,1] to the live stream.
func (h *beepHandle) SetVolume(v float64) error {
	speaker.Lock()
	h.vol.Volume = h.engine.gain(v)
	h.vol.Silent = v <= 0
	speaker.Unlock()
	return nil
}

// Close stops playback and releases the connection.
func (h *beepHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		speaker.Clear()
		_ = h.streamer.Close()
		err = h.body.Close()
		h.markDone()
	})
	return err
}
