package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codeyogi-ai/backend/internal/model"
	"github.com/codeyogi-ai/backend/internal/repository"
	"github.com/codeyogi-ai/backend/internal/service/analytics"
)

type analyticsService interface {
	SaveSessionMetrics(ctx context.Context, session *model.OptimizationSession) error
	GetAggregatedAnalytics(ctx context.Context, userID string) (*model.AggregatedMetrics, error)
	GetRecentOptimizations(ctx context.Context, userID string, limit int) ([]model.OptimizationSession, error)
}

type AnalyticsHandler struct {
	service analyticsService
}

func NewAnalyticsHandler(service analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users/{userID}/sessions", h.SaveSession)
	r.Get("/users/{userID}/analytics", h.Analytics)
	r.Get("/users/{userID}/sessions/recent", h.RecentSessions)
}

func (h *AnalyticsHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB

	var session model.OptimizationSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session.UserID = chi.URLParam(r, "userID")

	if err := h.service.SaveSessionMetrics(r.Context(), &session); err != nil {
		if errors.Is(err, analytics.ErrMergeContention) {
			writeError(w, http.StatusConflict, "concurrent saves in progress, retry")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save session metrics")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *AnalyticsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	agg, err := h.service.GetAggregatedAnalytics(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no analytics recorded for user")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *AnalyticsHandler) RecentSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	sessions, err := h.service.GetRecentOptimizations(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []model.OptimizationSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}
