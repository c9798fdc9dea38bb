package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/repository"
	"github.com/tart-proj/codescholar/infrastructure/api/jsonapi"
	"github.com/tart-proj/codescholar/infrastructure/api/middleware"
)

// IdiomsRouter handles mined idiom read endpoints.
type IdiomsRouter struct {
	client *codescholar.Client
	logger *slog.Logger
}

// NewIdiomsRouter creates a new IdiomsRouter.
func NewIdiomsRouter(client *codescholar.Client) *IdiomsRouter {
	return &IdiomsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for idiom endpoints.
func (r *IdiomsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/{id}", r.Get)

	return router
}

// List handles GET /api/v1/idioms. Results can be narrowed with run_id,
// dataset, size and min_support query parameters and are paginated.
func (r *IdiomsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	options, err := idiomFilters(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Idioms.Count(ctx, options...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	params := ParsePagination(req)
	options = append(options, repository.WithOrderAsc("rank"))
	options = append(options, params.Options()...)

	idioms, err := r.client.Idioms.Find(ctx, options...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.Document{
		Data:  jsonapi.IdiomResources(idioms),
		Meta:  PaginationMeta(params, total),
		Links: PaginationLinks(req, params, total),
	})
}

// Get handles GET /api/v1/idioms/{id}.
func (r *IdiomsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := uuid.Parse(chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid idiom id", err), r.logger)
		return
	}

	idm, err := r.client.Idioms.Get(ctx, id)
	if errors.Is(err, idiom.ErrNotFound) {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusNotFound, "idiom not found", err), r.logger)
		return
	}
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resource := jsonapi.IdiomResource(idm)
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(&resource))
}

// idiomFilters translates query parameters into repository options.
func idiomFilters(req *http.Request) ([]repository.Option, error) {
	var options []repository.Option
	q := req.URL.Query()

	if runID := q.Get("run_id"); runID != "" {
		if _, err := uuid.Parse(runID); err != nil {
			return nil, middleware.NewAPIError(http.StatusBadRequest, "invalid run_id", err)
		}
		options = append(options, repository.WithRunID(runID))
	}
	if dataset := q.Get("dataset"); dataset != "" {
		options = append(options, repository.WithDataset(dataset))
	}
	if sizeStr := q.Get("size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			return nil, middleware.NewAPIError(http.StatusBadRequest, "invalid size", err)
		}
		options = append(options, repository.WithSize(size))
	}
	if minStr := q.Get("min_support"); minStr != "" {
		minSupport, err := strconv.Atoi(minStr)
		if err != nil || minSupport < 0 {
			return nil, middleware.NewAPIError(http.StatusBadRequest, "invalid min_support", err)
		}
		options = append(options, repository.WithMinSupport(minSupport))
	}

	return options, nil
}
