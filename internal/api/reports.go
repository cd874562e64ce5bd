package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hotspot-prioritizer/hotspot/internal/ingestion"
	"github.com/hotspot-prioritizer/hotspot/internal/store"
)

// userHeader identifies the voting user. Authentication happens upstream.
const userHeader = "X-User-ID"

func (h *Handler) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req ingestion.ReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.CreateReport(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			writeError(w, http.StatusRequestTimeout, err.Error())
			return
		}
		h.writeStoreError(w, "create report", err)
		return
	}
	h.cache.Put(report)
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if cached := h.cache.Get(id); cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	report, err := h.svc.GetReport(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "get report", err)
		return
	}
	h.cache.Put(report)
	writeJSON(w, http.StatusOK, report)
}

type voteResponse struct {
	Report *store.Report `json:"report"`
	Vote   string        `json:"vote"` // "up", "down" or "none"
}

func (h *Handler) handleVote(dir store.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			writeError(w, http.StatusBadRequest, userHeader+" header is required")
			return
		}

		out, err := h.svc.Vote(r.Context(), r.PathValue("id"), userID, dir)
		if err != nil {
			h.writeStoreError(w, "vote", err)
			return
		}
		h.cache.Put(out.Report)

		resp := voteResponse{Report: out.Report, Vote: "none"}
		if out.Vote != 0 {
			resp.Vote = out.Vote.String()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
