package control

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundkite/radiobox/internal/app/player"
)

func TestService_EventFeed(t *testing.T) {
	srv, session := newTestServer(t)

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered asynchronously after the upgrade,
	// so keep nudging the volume until an event comes through.
	var ev WireEvent
	received := false
	for i := 0; i < 50 && !received; i++ {
		session.SetVolume(0.25)
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if err := conn.ReadJSON(&ev); err == nil {
			received = true
		}
	}
	require.True(t, received, "expected a volume event on the feed")

	assert.Equal(t, "volume_changed", ev.Type)
	assert.Equal(t, 0.25, ev.Volume)
}

func TestToWireEvent(t *testing.T) {
	ev := toWireEvent(player.Event{
		Type:    player.EventRetryScheduled,
		Status:  player.StatusError,
		Attempt: 2,
		Delay:   4 * time.Second,
	})

	assert.Equal(t, "retry_scheduled", ev.Type)
	assert.Equal(t, "error", ev.Status)
	assert.Equal(t, "Connection Error", ev.StatusText)
	assert.Equal(t, "red", ev.StatusColor)
	assert.Equal(t, 2, ev.Attempt)
	assert.Equal(t, int64(4000), ev.DelayMs)
}
