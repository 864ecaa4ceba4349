// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/ranqr/internal/domain/types"
)

// AnalysisHandler serves the ranking quality endpoints: score
// distributions, triangles, and controversy reports.
type AnalysisHandler struct {
	deps Dependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps Dependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

type resolveTriangleRequest struct {
	ItemAID    int64            `json:"item_a_id"`
	ItemBID    int64            `json:"item_b_id"`
	ItemCID    int64            `json:"item_c_id"`
	Resolution types.Resolution `json:"resolution"`
}

// HandleScoreDistribution handles
// GET /api/collections/{id}/score-distribution?path=1,0 requests. The
// path selects the tie-break depth: empty for main points, one
// sub-score per comma-separated element to descend into.
func (h *AnalysisHandler) HandleScoreDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	path, err := parsePath(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	dist, err := h.deps.ScoreDistribution(r.Context(), id, path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

// HandleTriangles handles GET /api/collections/{id}/triangles requests.
func (h *AnalysisHandler) HandleTriangles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	triangles, err := h.deps.Triangles(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if triangles == nil {
		triangles = []types.Triangle{}
	}
	writeJSON(w, http.StatusOK, triangles)
}

// HandleTriangleOptions handles
// GET /api/collections/{id}/triangles/{a}/{b}/{c}/options requests.
func (h *AnalysisHandler) HandleTriangleOptions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	a, errA := pathID(r, "a")
	b, errB := pathID(r, "b")
	c, errC := pathID(r, "c")
	if errA != nil || errB != nil || errC != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	options, err := h.deps.TriangleOptions(r.Context(), id, a, b, c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

// HandleTriangleResolve handles
// POST /api/collections/{id}/triangles/resolve requests.
func (h *AnalysisHandler) HandleTriangleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req resolveTriangleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	changes, err := h.deps.ResolveTriangle(r.Context(), id, req.ItemAID, req.ItemBID, req.ItemCID, req.Resolution)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if changes == nil {
		changes = []types.VoteChange{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "resolved",
		"changes": changes,
	})
}

// HandleControversy handles
// GET /api/collections/{id}/controversial-votes requests.
func (h *AnalysisHandler) HandleControversy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.Controversy(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if report.TopVotes == nil {
		report.TopVotes = []types.ControversialVote{}
	}
	writeJSON(w, http.StatusOK, report)
}

// parsePath parses a comma-separated list of sub-scores.
func parsePath(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	path := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, ErrBadRequest
		}
		path[i] = v
	}
	return path, nil
}
