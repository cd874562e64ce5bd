// Package api implements the hotspot REST API.
// It exposes stateless scoring, report creation, voting and admin
// endpoints over the ingestion service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/internal/ingestion"
	"github.com/hotspot-prioritizer/hotspot/internal/store"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ModelInfo reports trained-model status.
type ModelInfo interface {
	Info() model.Info
}

// Handler is the top-level API handler for the hotspot service.
type Handler struct {
	svc    *ingestion.Service
	models ModelInfo
	cache  *ReportCache
	logger *zap.Logger
}

// NewHandler creates a new API handler. models may be nil when no
// predictor is configured.
func NewHandler(svc *ingestion.Service, models ModelInfo, cache *ReportCache, logger *zap.Logger) *Handler {
	if cache == nil {
		cache = NewReportCache(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		models: models,
		cache:  cache,
		logger: logger,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux. Admin
// routes are wrapped with admin, typically APIKeyAuth.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}

	mux.HandleFunc("POST /api/v1/score", h.handleScore)
	mux.HandleFunc("POST /api/v1/reports", h.handleCreateReport)
	mux.HandleFunc("GET /api/v1/reports/{id}", h.handleGetReport)
	mux.HandleFunc("POST /api/v1/reports/{id}/upvote", h.handleVote(store.Up))
	mux.HandleFunc("POST /api/v1/reports/{id}/downvote", h.handleVote(store.Down))

	mux.HandleFunc("GET /api/v1/features", h.handleFeatures)
	mux.HandleFunc("GET /api/v1/model", h.handleModel)

	mux.Handle("POST /api/v1/admin/rescore", admin(http.HandlerFunc(h.handleRescore)))
	mux.Handle("GET /api/v1/admin/reports/{id}/snapshot", admin(http.HandlerFunc(h.handleArchivedSnapshot)))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors to HTTP statuses.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, op+": "+err.Error())
}
