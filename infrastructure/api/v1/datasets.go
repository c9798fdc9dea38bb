package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/domain/repository"
	"github.com/tart-proj/codescholar/infrastructure/api/jsonapi"
	"github.com/tart-proj/codescholar/infrastructure/api/middleware"
	"github.com/tart-proj/codescholar/infrastructure/api/v1/dto"
)

// DatasetsRouter handles corpus dataset endpoints. Ingest is a mutating
// operation and sits behind write protection when API keys are configured.
type DatasetsRouter struct {
	client *codescholar.Client
	logger *slog.Logger
}

// NewDatasetsRouter creates a new DatasetsRouter.
func NewDatasetsRouter(client *codescholar.Client) *DatasetsRouter {
	return &DatasetsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for dataset endpoints.
func (r *DatasetsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Ingest)
	router.Get("/{name}", r.Get)

	return router
}

// Ingest handles POST /api/v1/datasets, loading a manifest into the
// corpus. With async=true the ingest (and oracle warm-up, when an
// embedding oracle is configured) runs in the background.
func (r *DatasetsRouter) Ingest(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.IngestRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}
	if body.Manifest == "" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "manifest is required", nil), r.logger)
		return
	}

	if body.Async {
		if err := r.client.EnqueueIngest(ctx, body.Manifest); err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, dto.QueuedResponse{Status: "queued"})
		return
	}

	n, err := r.client.IngestManifest(ctx, body.Manifest)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, dto.IngestResponse{Programs: n})
}

// Get handles GET /api/v1/datasets/{name}, reporting how many programs a
// dataset holds.
func (r *DatasetsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	name := chi.URLParam(req, "name")

	count, err := r.client.Corpus.Count(ctx, repository.WithDataset(name))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resource := jsonapi.NewResource("dataset", name, map[string]any{"programs": count})
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(resource))
}
