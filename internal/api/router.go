// Package api exposes the admin HTTP surface: a health probe and manual
// triggers for the daily delivery job.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devprep/interview-bot/internal/service/delivery"
	"github.com/devprep/interview-bot/internal/store"
)

// DailyRunner kicks off the daily delivery for all active users.
// Implemented by the scheduler.
type DailyRunner interface {
	RunDaily()
}

// Server holds the admin endpoint dependencies.
type Server struct {
	users    store.UserStore
	delivery *delivery.Service
	daily    DailyRunner
	logger   *slog.Logger
}

// NewServer creates the admin server.
func NewServer(users store.UserStore, deliverySvc *delivery.Service, daily DailyRunner, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		users:    users,
		delivery: deliverySvc,
		daily:    daily,
		logger:   log.With(slog.String("component", "admin_api")),
	}
}

// Routes builds the chi router for the admin surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/trigger", s.handleTriggerAll)
	r.Post("/trigger/{chatID}", s.handleTriggerUser)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTriggerAll runs the daily job immediately, in the background so
// the request returns right away.
func (s *Server) handleTriggerAll(w http.ResponseWriter, r *http.Request) {
	go s.daily.RunDaily()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

// handleTriggerUser starts a fresh cycle for a single chat.
func (s *Server) handleTriggerUser(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat ID"})
		return
	}

	user, err := s.users.GetByChatID(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown chat ID"})
			return
		}
		s.logger.Error("failed to look up user",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if err := s.delivery.StartCycle(r.Context(), user); err != nil {
		if errors.Is(err, delivery.ErrNoQuestionsLeft) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no unanswered questions left"})
			return
		}
		s.logger.Error("failed to start cycle",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
