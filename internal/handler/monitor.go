package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codeyogi-ai/backend/internal/model"
	"github.com/codeyogi-ai/backend/internal/service/monitor"
)

type monitorService interface {
	Start(cfg monitor.Config) error
	Stop()
	CheckNow(ctx context.Context) error
	UpdateConfig(update monitor.ConfigUpdate)
	Snapshot() model.MonitorState
	Logs() []model.LogEntry
}

type MonitorHandler struct {
	monitor monitorService
}

func NewMonitorHandler(mon monitorService) *MonitorHandler {
	return &MonitorHandler{monitor: mon}
}

func (h *MonitorHandler) RegisterRoutes(r chi.Router) {
	r.Get("/monitor/status", h.Status)
	r.Get("/monitor/logs", h.Logs)
	r.Post("/monitor/start", h.Start)
	r.Post("/monitor/stop", h.Stop)
	r.Post("/monitor/check", h.Check)
	r.Patch("/monitor/config", h.UpdateConfig)
}

func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *MonitorHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs := h.monitor.Logs()
	if logs == nil {
		logs = []model.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

type startRequest struct {
	RepoURL      string `json:"repo_url"`
	LastKnownSHA string `json:"last_known_sha"`
	GithubToken  string `json:"github_token"`
}

func (h *MonitorHandler) Start(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.monitor.Start(monitor.Config{
		RepoURL:      req.RepoURL,
		LastKnownSHA: req.LastKnownSHA,
		AuthToken:    req.GithubToken,
	})
	if err != nil {
		if errors.Is(err, monitor.ErrEmptyRepoURL) {
			writeError(w, http.StatusBadRequest, "repository URL is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start monitoring")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Monitoring started"})
}

func (h *MonitorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.monitor.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Monitoring stopped"})
}

func (h *MonitorHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.CheckNow(r.Context()); err != nil {
		switch {
		case errors.Is(err, monitor.ErrNotConfigured):
			writeError(w, http.StatusBadRequest, "no repository configured")
		case errors.Is(err, monitor.ErrCheckInFlight):
			writeError(w, http.StatusConflict, "a check is already in flight")
		default:
			writeError(w, http.StatusBadGateway, "repository check failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

type configRequest struct {
	RepoURL      *string `json:"repo_url"`
	LastKnownSHA *string `json:"last_known_sha"`
	GithubToken  *string `json:"github_token"`
}

func (h *MonitorHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.monitor.UpdateConfig(monitor.ConfigUpdate{
		RepoURL:      req.RepoURL,
		LastKnownSHA: req.LastKnownSHA,
		AuthToken:    req.GithubToken,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Config updated"})
}
