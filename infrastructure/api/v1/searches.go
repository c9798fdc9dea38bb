// Package v1 implements the versioned HTTP API over a codescholar Client.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/application/service"
	"github.com/tart-proj/codescholar/infrastructure/api/middleware"
	"github.com/tart-proj/codescholar/infrastructure/api/v1/dto"
)

// SearchRouter handles idiom search endpoints.
type SearchRouter struct {
	client *codescholar.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *codescholar.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Run)

	return router
}

// Run handles POST /api/v1/searches. A synchronous run returns the mined
// idioms; with async=true the run is queued and a 202 is returned.
func (r *SearchRouter) Run(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}
	if len(body.Seed) == 0 {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "seed is required", nil), r.logger)
		return
	}

	if body.Async {
		if err := r.client.EnqueueSearch(ctx, body.Seed, body.Dataset); err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, dto.QueuedResponse{Status: "queued"})
		return
	}

	result, err := r.client.RunSearch(ctx, body.Seed, body.Dataset)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildSearchResponse(result))
}

func buildSearchResponse(result service.Result) dto.SearchResponse {
	idioms := result.Idioms()
	data := make([]dto.IdiomData, len(idioms))
	for i, idm := range idioms {
		data[i] = dto.IdiomData{
			ID:        idm.ID().String(),
			Rank:      idm.Rank(),
			Size:      idm.Size(),
			Support:   idm.Support(),
			APIs:      idm.APIs(),
			Signature: idm.Signature(),
			Source:    idm.Source(),
			CreatedAt: idm.CreatedAt(),
		}
	}

	history := result.History()
	measurements := make([]dto.MeasurementData, len(history))
	for i, m := range history {
		measurements[i] = dto.MeasurementData{
			Size:        m.Size(),
			Reusability: m.Reusability(),
			Diversity:   m.Diversity(),
		}
	}

	return dto.SearchResponse{
		RunID:     result.RunID().String(),
		Dataset:   result.Dataset(),
		Seed:      result.Seed(),
		Converged: result.Converged(),
		FinalSize: result.FinalSize(),
		History:   measurements,
		Idioms:    data,
	}
}
