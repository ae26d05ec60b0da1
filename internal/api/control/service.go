// Package control provides the HTTP control API for the player daemon.
package control

import (
	"encoding/json"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/soundkite/radiobox/internal/app/events"
	"github.com/soundkite/radiobox/internal/app/lifecycle"
	"github.com/soundkite/radiobox/internal/app/player"
)

// Service exposes play/stop/volume/status and lifecycle reporting over HTTP.
type Service struct {
	session     *player.Session
	coordinator *lifecycle.Coordinator
	broker      *events.Broker
	streamName  string
}

// NewService creates a new control service.
func NewService(session *player.Session, coordinator *lifecycle.Coordinator, broker *events.Broker, streamName string) *Service {
	return &Service{
		session:     session,
		coordinator: coordinator,
		broker:      broker,
		streamName:  streamName,
	}
}

// Register registers all routes on the mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/play", s.handlePlay)
	mux.HandleFunc("POST /v1/stop", s.handleStop)
	mux.HandleFunc("POST /v1/toggle", s.handleToggle)
	mux.HandleFunc("POST /v1/volume", s.handleVolume)
	mux.HandleFunc("POST /v1/lifecycle", s.handleLifecycle)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
}

// StatusResponse is the status readout returned by GET /v1/status.
type StatusResponse struct {
	Stream            string  `json:"stream"`
	Status            string  `json:"status"`
	StatusText        string  `json:"status_text"`
	StatusColor       string  `json:"status_color"`
	Volume            float64 `json:"volume"`
	ReconnectAttempts int     `json:"reconnect_attempts"`
	AppState          string  `json:"app_state"`
}

// VolumeRequest sets the volume, either absolutely or as a nudge.
type VolumeRequest struct {
	Volume *float64 `json:"volume,omitempty"`
	Delta  *float64 `json:"delta,omitempty"`
}

// VolumeResponse reports the applied volume.
type VolumeResponse struct {
	Volume float64 `json:"volume"`
}

// LifecycleRequest reports an application state transition.
type LifecycleRequest struct {
	State string `json:"state"`
}

func (s *Service) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.session.Start()
	s.writeStatus(w)
}

func (s *Service) handleStop(w http.ResponseWriter, r *http.Request) {
	s.session.Stop()
	s.writeStatus(w)
}

func (s *Service) handleToggle(w http.ResponseWriter, r *http.Request) {
	switch s.session.Status() {
	case player.StatusConnecting, player.StatusPlaying:
		s.session.Stop()
	default:
		s.session.Start()
	}
	s.writeStatus(w)
}

func (s *Service) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var applied float64
	switch {
	case req.Volume != nil:
		applied = s.session.SetVolume(*req.Volume)
	case req.Delta != nil:
		applied = s.session.NudgeVolume(*req.Delta)
	default:
		http.Error(w, "volume or delta is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, VolumeResponse{Volume: applied})
}

func (s *Service) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	var req LifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	state, ok := lifecycle.ParseState(req.State)
	if !ok {
		http.Error(w, "unknown lifecycle state", http.StatusBadRequest)
		return
	}

	s.coordinator.Transition(state)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w)
}

func (s *Service) writeStatus(w http.ResponseWriter) {
	snap := s.session.Snapshot()
	writeJSON(w, StatusResponse{
		Stream:            s.streamName,
		Status:            snap.Status.String(),
		StatusText:        snap.Status.Text(),
		StatusColor:       snap.Status.Color(),
		Volume:            snap.Volume,
		ReconnectAttempts: snap.ReconnectAttempts,
		AppState:          s.coordinator.AppState().String(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("control: failed to write response")
	}
}
