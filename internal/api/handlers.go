package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/infotavla/internal/dashboard"
	"github.com/yegors/infotavla/internal/display"
	"github.com/yegors/infotavla/internal/source"
	"github.com/yegors/infotavla/pkg/logger"
	"golang.org/x/time/rate"
)

// Dashboard is the part of the orchestrator the API needs
type Dashboard interface {
	Tick(ctx context.Context, name source.Name) error
	Status() []dashboard.Status
}

// Display is the read side of the display
type Display interface {
	Region(id display.RegionID) (display.Region, bool)
	Snapshot() []display.Region
}

// Handler contains the API handlers
type Handler struct {
	dashboard      Dashboard
	display        Display
	limiter        *rate.Limiter
	refreshTimeout time.Duration
	startedAt      time.Time
	logger         *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(dash Dashboard, disp Display, limiter *rate.Limiter, refreshTimeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		dashboard:      dash,
		display:        disp,
		limiter:        limiter,
		refreshTimeout: refreshTimeout,
		startedAt:      time.Now(),
		logger:         log.Named("api-handler"),
	}
}

// GetDisplay returns every region
func (h *Handler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"regions": h.display.Snapshot(),
	})
}

// GetRegion returns one region
func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id := display.RegionID(chi.URLParam(r, "id"))

	region, ok := h.display.Region(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "region not found: "+string(id))
		return
	}
	WriteJSON(w, http.StatusOK, region)
}

// GetStatus returns the status of every pipeline
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"pipelines": h.dashboard.Status(),
	})
}

// Refresh runs one pipeline immediately
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	name, ok := source.ParseName(chi.URLParam(r, "source"))
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown source: "+chi.URLParam(r, "source"))
		return
	}

	if !h.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		WriteError(w, http.StatusTooManyRequests, "refresh rate limited")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.refreshTimeout)
	defer cancel()

	err := h.dashboard.Tick(ctx, name)
	switch {
	case err == nil:
		h.logger.Info("Manual refresh completed", logger.String("source", string(name)))
		WriteJSON(w, http.StatusOK, map[string]any{"source": name, "status": "rendered"})
	case errors.Is(err, dashboard.ErrPipelineDisabled), errors.Is(err, display.ErrRegionMissing):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		WriteError(w, http.StatusBadGateway, err.Error())
	}
}

// GetHealth returns the health status of the dashboard. It is degraded
// while any pipeline is disabled or its last tick failed.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	for _, p := range h.dashboard.Status() {
		if p.State == dashboard.StateDisabled || p.LastOutcome == dashboard.OutcomeFailed {
			status = "degraded"
			break
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error body
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
