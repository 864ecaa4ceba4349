// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// MatchupHandler serves matchups and records votes.
type MatchupHandler struct {
	deps Dependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps Dependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

type voteRequest struct {
	Item1ID int64  `json:"item1_id"`
	Item2ID int64  `json:"item2_id"`
	Result  string `json:"result"`
}

// HandleGet handles GET /api/collections/{id}/matchup requests. With
// item1 and item2 query parameters a caller-chosen pair is served;
// otherwise the selector picks the most informative one. When every
// pair has been compared the response carries a completion message
// instead of a matchup.
func (h *MatchupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	q := r.URL.Query()
	if q.Has("item1") || q.Has("item2") {
		a, errA := strconv.ParseInt(q.Get("item1"), 10, 64)
		b, errB := strconv.ParseInt(q.Get("item2"), 10, 64)
		if errA != nil || errB != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		m, err := h.deps.DirectMatchup(r.Context(), id, a, b)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}

	m, ok, err := h.deps.NextMatchup(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"message": "completed"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleVote handles POST /api/collections/{id}/matchup requests.
func (h *MatchupHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	vote, err := h.deps.SubmitVote(r.Context(), id, req.Item1ID, req.Item2ID, req.Result)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}
