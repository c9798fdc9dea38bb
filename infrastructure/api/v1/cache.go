package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/infrastructure/api/middleware"
)

// CacheRouter handles oracle score cache administration.
type CacheRouter struct {
	client *codescholar.Client
	logger *slog.Logger
}

// NewCacheRouter creates a new CacheRouter.
func NewCacheRouter(client *codescholar.Client) *CacheRouter {
	return &CacheRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for cache endpoints.
func (r *CacheRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/flush", r.Flush)

	return router
}

// Flush handles POST /api/v1/cache/flush, discarding all cached oracle
// scores so the next run re-queries the embedding endpoint.
func (r *CacheRouter) Flush(w http.ResponseWriter, req *http.Request) {
	if err := r.client.FlushCache(req.Context()); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
