package api

import (
	"net/http"
	"slices"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// scoreRequest is the JSON body for POST /api/v1/score. Profile takes
// precedence over Category routing.
type scoreRequest struct {
	Category string         `json:"category"`
	Profile  string         `json:"profile"`
	Signals  signals.Bundle `json:"signals"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	engine := h.svc.Engine()
	profile := req.Profile
	if profile == "" {
		profile = engine.ProfileFor(req.Category)
	} else if !slices.Contains(engine.Profiles(), profile) {
		writeError(w, http.StatusBadRequest, "unknown profile "+profile)
		return
	}

	writeJSON(w, http.StatusOK, engine.Score(profile, req.Signals))
}

type featuresResponse struct {
	Display []string `json:"display"`
	Model   []string `json:"model"`
}

func (h *Handler) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, featuresResponse{
		Display: features.Names[:],
		Model:   features.ModelNames[:],
	})
}

type modelResponse struct {
	Model    any      `json:"model"`
	Profiles []string `json:"profiles"`
	Methods  []string `json:"methods"`
}

func (h *Handler) handleModel(w http.ResponseWriter, _ *http.Request) {
	resp := modelResponse{
		Model:    map[string]any{"loaded": false},
		Profiles: h.svc.Engine().Profiles(),
		Methods:  []string{string(scoring.MethodRuleBased), string(scoring.MethodTrainedModel)},
	}
	slices.Sort(resp.Profiles)
	if h.models != nil {
		resp.Model = h.models.Info()
	}
	writeJSON(w, http.StatusOK, resp)
}
