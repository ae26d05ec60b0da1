package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundkite/radiobox/internal/infra/config"
)

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(config.EngineConfig{Type: "gstreamer"})
	assert.Error(t, err)
}

func TestNewBeepEngine_Defaults(t *testing.T) {
	e, err := newBeepEngine(nil)
	require.NoError(t, err)

	assert.Equal(t, 250, e.settings.BufferMs)
	assert.Equal(t, -10.0, e.settings.MinVolumeDB)
	assert.Equal(t, 0.5, e.settings.VolumeCurve)
	assert.Equal(t, 10, e.settings.DialTimeoutSec)
	assert.Equal(t, 15, e.settings.ResponseHeaderTimeoutSec)
}

func TestNewBeepEngine_SettingsDecoded(t *testing.T) {
	e, err := newBeepEngine(map[string]any{
		"buffer_ms":     100,
		"min_volume_db": -20.0,
		"volume_curve":  1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, e.settings.BufferMs)
	assert.Equal(t, -20.0, e.settings.MinVolumeDB)
	assert.Equal(t, 1.0, e.settings.VolumeCurve)
}

func TestNewBeepEngine_InvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
	}{
		{name: "buffer too small", settings: map[string]any{"buffer_ms": 1}},
		{name: "positive floor", settings: map[string]any{"min_volume_db": 3.0}},
		{name: "zero curve", settings: map[string]any{"volume_curve": 0.0}},
		{name: "wrong type", settings: map[string]any{"buffer_ms": []string{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newBeepEngine(tt.settings)
			assert.Error(t, err)
		})
	}
}

func TestBeepEngine_Gain(t *testing.T) {
	e, err := newBeepEngine(nil)
	require.NoError(t, err)

	assert.Equal(t, -10.0, e.gain(0), "silence pins to the floor")
	assert.Equal(t, 0.0, e.gain(1), "full volume is unity gain")

	// The curve must be monotonically increasing across the dial.
	prev := e.gain(0)
	for v := 0.1; v < 1.0; v += 0.1 {
		g := e.gain(v)
		assert.Greater(t, g, prev, "gain at %.1f must exceed gain at %.1f", v, v-0.1)
		prev = g
	}
}
