package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/internal/ingestion"
)

// handleRescore re-runs the scoring engine over every stored snapshot
// with its current upvote count and updates the rows in place. Reports
// that fail are listed in the response; the rest are still updated.
func (h *Handler) handleRescore(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.RescoreAll(r.Context())
	h.cache.Purge()
	if err != nil {
		h.logger.Error("rescore", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "rescore: "+err.Error())
		return
	}

	h.logger.Info("rescore complete",
		zap.Int("total", summary.Total),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", len(summary.Failed)))
	writeJSON(w, http.StatusOK, summary)
}

// handleArchivedSnapshot returns the feature snapshot archived at creation,
// for auditing a report whose stored row has since been re-scored.
func (h *Handler) handleArchivedSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.svc.ArchivedSnapshot(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, snap)
	case errors.Is(err, ingestion.ErrNoArchive):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, ingestion.ErrBlobNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("archived snapshot", zap.String("report_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archived snapshot: "+err.Error())
	}
}
