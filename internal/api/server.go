// Package api serves the local HTTP surface over the call session:
// health, session state, roster, history, and call actions. It is the
// headless replacement for the mobile UI as the session's observer.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	types "github.com/sebas/ridecall/api/types/v1"
	"github.com/sebas/ridecall/internal/call"
	"github.com/sebas/ridecall/internal/history"
)

// SessionProvider exposes the session to the API.
// Implemented by call.Session.
type SessionProvider interface {
	Snapshot() call.Snapshot
	ParticipantDetails() string
	StartTimestamp() time.Time
	CurrentCallDuration() time.Duration
	AcceptCall()
	Disconnect()
}

// HistoryProvider exposes the call history to the API.
// Implemented by history.Recorder.
type HistoryProvider interface {
	History() ([]history.CallRecord, error)
	ClearHistory() error
}

// Server is the local HTTP API server.
type Server struct {
	addr       string
	httpServer *http.Server
	session    SessionProvider
	hist       HistoryProvider
	log        *slog.Logger
	startTime  time.Time
}

// NewServer creates the API server.
func NewServer(addr string, session SessionProvider, hist HistoryProvider, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:      addr,
		session:   session,
		hist:      hist,
		log:       log,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/session", s.handleSession)
		r.Get("/session/participants", s.handleParticipants)
		r.Post("/session/accept", s.handleAccept)
		r.Post("/session/hangup", s.handleHangup)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("[API] Listening", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status: "ok",
		Uptime: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	snap := s.session.Snapshot()
	resp := types.SessionResponse{
		CallType:         snap.Type.String(),
		State:            snap.State.String(),
		Status:           snap.Status.String(),
		ParticipantCount: snap.ParticipantCount,
		DurationSeconds:  int64(s.session.CurrentCallDuration() / time.Second),
		Display:          s.session.ParticipantDetails(),
	}
	if start := s.session.StartTimestamp(); !start.IsZero() {
		resp.StartTime = start.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleParticipants(w http.ResponseWriter, _ *http.Request) {
	snap := s.session.Snapshot()
	out := make([]types.Participant, 0, len(snap.Participants))
	for _, p := range snap.Participants {
		out = append(out, types.Participant{
			SID:         p.SID,
			Identity:    p.Identity,
			IsLocal:     p.IsLocal,
			Type:        p.Type.String(),
			ConnectedAt: p.ConnectedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAccept(w http.ResponseWriter, _ *http.Request) {
	s.session.AcceptCall()
	snap := s.session.Snapshot()
	writeJSON(w, http.StatusOK, types.ActionResponse{OK: true, State: snap.State.String()})
}

func (s *Server) handleHangup(w http.ResponseWriter, _ *http.Request) {
	s.session.Disconnect()
	snap := s.session.Snapshot()
	writeJSON(w, http.StatusOK, types.ActionResponse{OK: true, State: snap.State.String()})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	records, err := s.hist.History()
	if err != nil {
		s.log.Error("[API] History load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.ActionResponse{OK: false, Error: "history unavailable"})
		return
	}
	out := make([]types.CallRecord, 0, len(records))
	for _, rec := range records {
		item := types.CallRecord{
			ID:          rec.ID,
			CallType:    rec.CallType.String(),
			ContactName: rec.ContactName,
			StartTime:   rec.StartTime.Format(time.RFC3339),
			Duration:    rec.Duration,
			DurationHMS: history.FormatDuration(rec.Duration),
			Status:      string(rec.Status),
		}
		if !rec.EndTime.IsZero() {
			item.EndTime = rec.EndTime.Format(time.RFC3339)
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	if err := s.hist.ClearHistory(); err != nil {
		s.log.Error("[API] History clear failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.ActionResponse{OK: false, Error: "clear failed"})
		return
	}
	writeJSON(w, http.StatusOK, types.ActionResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
