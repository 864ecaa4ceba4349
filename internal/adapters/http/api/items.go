// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/ranqr/internal/domain/types"
)

// ItemsHandler handles item CRUD and vote history.
type ItemsHandler struct {
	deps Dependencies
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps Dependencies) *ItemsHandler {
	return &ItemsHandler{deps: deps}
}

type addItemsRequest struct {
	Items      itemList `json:"items"`
	MediaLinks []string `json:"media_links"`
}

type updateItemRequest struct {
	Name      *string `json:"name"`
	MediaLink *string `json:"media_link"`
}

// HandleAdd handles POST /api/collections/{id}/items requests.
func (h *ItemsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req addItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	created, err := h.deps.AddItems(r.Context(), id, req.Items, req.MediaLinks)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if created == nil {
		created = []types.Item{}
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /api/items/{id} requests.
func (h *ItemsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	item, err := h.deps.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleUpdate handles PUT and PATCH /api/items/{id} requests.
func (h *ItemsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	item, err := h.deps.UpdateItem(r.Context(), id, req.Name, req.MediaLink)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDelete handles DELETE /api/items/{id} requests.
func (h *ItemsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.DeleteItem(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleVotes handles GET /api/items/{id}/votes requests.
func (h *ItemsHandler) HandleVotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	votes, err := h.deps.ItemVotes(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if votes == nil {
		votes = []types.Vote{}
	}
	writeJSON(w, http.StatusOK, votes)
}

// HandleResetVotes handles DELETE /api/items/{id}/votes requests.
func (h *ItemsHandler) HandleResetVotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	reset, err := h.deps.ResetItemVotes(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"comparisons_reset": reset})
}
