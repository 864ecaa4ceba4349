// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/ranqr/internal/domain/types"
)

// CollectionsHandler handles collection CRUD and import/export.
type CollectionsHandler struct {
	deps Dependencies
}

// NewCollectionsHandler creates a new collections handler.
func NewCollectionsHandler(deps Dependencies) *CollectionsHandler {
	return &CollectionsHandler{deps: deps}
}

// itemList accepts item names either as a JSON array of strings or as
// one newline-separated string; blank lines are skipped.
type itemList []string

func (l *itemList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*l = names
		return nil
	}
	var block string
	if err := json.Unmarshal(data, &block); err != nil {
		return err
	}
	*l = nil
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			*l = append(*l, line)
		}
	}
	return nil
}

type createCollectionRequest struct {
	Name         string   `json:"name"`
	SearchPrefix string   `json:"search_prefix"`
	Items        itemList `json:"items"`
}

type updateCollectionRequest struct {
	Name         *string `json:"name"`
	SearchPrefix *string `json:"search_prefix"`
}

// HandleList handles GET /api/collections requests.
func (h *CollectionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	collections, err := h.deps.ListCollections(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if collections == nil {
		collections = []types.Collection{}
	}
	writeJSON(w, http.StatusOK, collections)
}

// HandleCreate handles POST /api/collections requests. Initial items
// may be supplied in the same call.
func (h *CollectionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	c, err := h.deps.CreateCollection(r.Context(), req.Name, req.SearchPrefix)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(req.Items) > 0 {
		if _, err := h.deps.AddItems(r.Context(), c.ID, req.Items, nil); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	detail, err := h.deps.GetCollection(r.Context(), c.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// HandleGet handles GET /api/collections/{id} requests.
func (h *CollectionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	detail, err := h.deps.GetCollection(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleUpdate handles PUT and PATCH /api/collections/{id} requests.
func (h *CollectionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req updateCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	c, err := h.deps.UpdateCollection(r.Context(), id, req.Name, req.SearchPrefix)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /api/collections/{id} requests.
func (h *CollectionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.DeleteCollection(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleExport handles GET /api/collections/{id}/export requests.
func (h *CollectionsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	exp, err := h.deps.ExportCollection(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// HandleImport handles POST /api/collections/import requests.
func (h *CollectionsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var exp types.Export
	if err := decodeJSON(r, &exp); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	detail, err := h.deps.ImportCollection(r.Context(), exp)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}
