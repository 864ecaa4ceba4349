// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/ranqr/internal/adapters/repository"
	service "github.com/okian/ranqr/internal/app"
	"github.com/okian/ranqr/internal/domain/ledger"
	"github.com/okian/ranqr/internal/domain/matchup"
	"github.com/okian/ranqr/internal/domain/model"
	"github.com/okian/ranqr/internal/domain/triangle"
	"github.com/okian/ranqr/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateCollection(ctx context.Context, name, searchPrefix string) (types.Collection, error)
	ListCollections(ctx context.Context) ([]types.Collection, error)
	GetCollection(ctx context.Context, id int64) (types.CollectionDetail, error)
	UpdateCollection(ctx context.Context, id int64, name, searchPrefix *string) (types.Collection, error)
	DeleteCollection(ctx context.Context, id int64) error

	AddItems(ctx context.Context, collectionID int64, names, mediaLinks []string) ([]types.Item, error)
	GetItem(ctx context.Context, id int64) (types.Item, error)
	UpdateItem(ctx context.Context, id int64, name, mediaLink *string) (types.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ItemVotes(ctx context.Context, itemID int64) ([]types.Vote, error)
	ResetItemVotes(ctx context.Context, itemID int64) (int, error)

	NextMatchup(ctx context.Context, collectionID int64) (types.Matchup, bool, error)
	DirectMatchup(ctx context.Context, collectionID, aID, bID int64) (types.Matchup, error)
	SubmitVote(ctx context.Context, collectionID, item1ID, item2ID int64, result string) (types.Vote, error)

	ScoreDistribution(ctx context.Context, collectionID int64, path []int) (types.ScoreDistribution, error)
	Triangles(ctx context.Context, collectionID int64) ([]types.Triangle, error)
	TriangleOptions(ctx context.Context, collectionID, aID, bID, cID int64) ([]types.TriangleOption, error)
	ResolveTriangle(ctx context.Context, collectionID, aID, bID, cID int64, res types.Resolution) ([]types.VoteChange, error)
	Controversy(ctx context.Context, collectionID int64) (types.ControversyReport, error)

	ExportCollection(ctx context.Context, collectionID int64) (types.Export, error)
	ImportCollection(ctx context.Context, exp types.Export) (types.CollectionDetail, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	collectionsHandler *CollectionsHandler
	itemsHandler       *ItemsHandler
	matchupHandler     *MatchupHandler
	analysisHandler    *AnalysisHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		collectionsHandler: NewCollectionsHandler(deps),
		itemsHandler:       NewItemsHandler(deps),
		matchupHandler:     NewMatchupHandler(deps),
		analysisHandler:    NewAnalysisHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/collections", MetricsMiddleware(s.collectionsHandler.HandleList, "collections"))
	mux.HandleFunc("POST /api/collections", MetricsMiddleware(s.collectionsHandler.HandleCreate, "collections"))
	mux.HandleFunc("POST /api/collections/import", MetricsMiddleware(s.collectionsHandler.HandleImport, "collections_import"))
	mux.HandleFunc("GET /api/collections/{id}", MetricsMiddleware(s.collectionsHandler.HandleGet, "collection"))
	mux.HandleFunc("PUT /api/collections/{id}", MetricsMiddleware(s.collectionsHandler.HandleUpdate, "collection"))
	mux.HandleFunc("PATCH /api/collections/{id}", MetricsMiddleware(s.collectionsHandler.HandleUpdate, "collection"))
	mux.HandleFunc("DELETE /api/collections/{id}", MetricsMiddleware(s.collectionsHandler.HandleDelete, "collection"))
	mux.HandleFunc("GET /api/collections/{id}/export", MetricsMiddleware(s.collectionsHandler.HandleExport, "collection_export"))
	mux.HandleFunc("POST /api/collections/{id}/items", MetricsMiddleware(s.itemsHandler.HandleAdd, "collection_items"))

	mux.HandleFunc("GET /api/collections/{id}/matchup", MetricsMiddleware(s.matchupHandler.HandleGet, "matchup"))
	mux.HandleFunc("POST /api/collections/{id}/matchup", MetricsMiddleware(s.matchupHandler.HandleVote, "matchup"))

	mux.HandleFunc("GET /api/collections/{id}/score-distribution", MetricsMiddleware(s.analysisHandler.HandleScoreDistribution, "score_distribution"))
	mux.HandleFunc("GET /api/collections/{id}/triangles", MetricsMiddleware(s.analysisHandler.HandleTriangles, "triangles"))
	mux.HandleFunc("GET /api/collections/{id}/triangles/{a}/{b}/{c}/options", MetricsMiddleware(s.analysisHandler.HandleTriangleOptions, "triangle_options"))
	mux.HandleFunc("POST /api/collections/{id}/triangles/resolve", MetricsMiddleware(s.analysisHandler.HandleTriangleResolve, "triangle_resolve"))
	mux.HandleFunc("GET /api/collections/{id}/controversial-votes", MetricsMiddleware(s.analysisHandler.HandleControversy, "controversial_votes"))

	mux.HandleFunc("GET /api/items/{id}", MetricsMiddleware(s.itemsHandler.HandleGet, "item"))
	mux.HandleFunc("PUT /api/items/{id}", MetricsMiddleware(s.itemsHandler.HandleUpdate, "item"))
	mux.HandleFunc("PATCH /api/items/{id}", MetricsMiddleware(s.itemsHandler.HandleUpdate, "item"))
	mux.HandleFunc("DELETE /api/items/{id}", MetricsMiddleware(s.itemsHandler.HandleDelete, "item"))
	mux.HandleFunc("GET /api/items/{id}/votes", MetricsMiddleware(s.itemsHandler.HandleVotes, "item_votes"))
	mux.HandleFunc("DELETE /api/items/{id}/votes", MetricsMiddleware(s.itemsHandler.HandleResetVotes, "item_votes"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and domain sentinels to HTTP
// statuses; anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, triangle.ErrItemNotFound),
		errors.Is(err, matchup.ErrItemNotInCollection):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, model.ErrSelfPair),
		errors.Is(err, model.ErrUnknownOutcome),
		errors.Is(err, triangle.ErrIncompleteTriple),
		errors.Is(err, triangle.ErrInvalidOrdering),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrNotEnoughItems),
		errors.Is(err, service.ErrUnsupportedExport),
		errors.Is(err, service.ErrMalformedExport):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathID parses the named path parameter as an int64 id.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrBadRequest
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ErrBadRequest
	}
	return nil
}
