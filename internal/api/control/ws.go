package control

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/soundkite/radiobox/internal/app/events"
	"github.com/soundkite/radiobox/internal/app/player"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon binds to loopback; a frontend served elsewhere still
	// needs to connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WireEvent is the JSON form of a player event sent over the websocket.
type WireEvent struct {
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	StatusText  string  `json:"status_text"`
	StatusColor string  `json:"status_color"`
	Volume      float64 `json:"volume,omitempty"`
	Attempt     int     `json:"attempt,omitempty"`
	DelayMs     int64   `json:"delay_ms,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func toWireEvent(e player.Event) WireEvent {
	w := WireEvent{
		Type:        e.Type.String(),
		Status:      e.Status.String(),
		StatusText:  e.Status.Text(),
		StatusColor: e.Status.Color(),
		Volume:      e.Volume,
		Attempt:     e.Attempt,
		DelayMs:     e.Delay.Milliseconds(),
	}
	if e.Err != nil {
		w.Error = e.Err.Error()
	}
	return w
}

// handleEvents upgrades the connection and streams player events until the
// client disconnects.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Err(err).Msg("control: websocket upgrade failed")
		return
	}

	send := make(chan WireEvent, 16)
	// Guards against a broadcast racing the unsubscribe below.
	var sendMu sync.Mutex
	sendClosed := false
	id := s.broker.Subscribe(events.SinkFunc(func(e player.Event) error {
		sendMu.Lock()
		defer sendMu.Unlock()
		if sendClosed {
			return nil
		}
		select {
		case send <- toWireEvent(e):
		default:
			// Slow client, drop event
		}
		return nil
	}))
	zlog.Debug().Msgf("control: event subscriber connected: id=%s", id)

	// Writer goroutine: gorilla connections allow one concurrent writer.
	go func() {
		for ev := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	// Read loop exists only to detect disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.broker.Unsubscribe(id)
	sendMu.Lock()
	sendClosed = true
	close(send)
	sendMu.Unlock()
	conn.Close()
	zlog.Debug().Msgf("control: event subscriber disconnected: id=%s", id)
}
