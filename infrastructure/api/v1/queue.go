package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/application/service"
	"github.com/tart-proj/codescholar/domain/task"
	"github.com/tart-proj/codescholar/infrastructure/api/jsonapi"
	"github.com/tart-proj/codescholar/infrastructure/api/middleware"
)

// QueueRouter exposes the background task queue read-only.
type QueueRouter struct {
	client *codescholar.Client
	logger *slog.Logger
}

// NewQueueRouter creates a new QueueRouter.
func NewQueueRouter(client *codescholar.Client) *QueueRouter {
	return &QueueRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for queue endpoints.
func (r *QueueRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/{id}", r.Get)
	router.Get("/{id}/status", r.Statuses)

	return router
}

// List handles GET /api/v1/queue. Pending tasks can be narrowed by
// operation and limited with limit/offset.
func (r *QueueRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	q := req.URL.Query()

	params := &service.TaskListParams{}
	if opStr := q.Get("operation"); opStr != "" {
		op := task.Operation(opStr)
		params.Operation = &op
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			params.Offset = offset
		}
	}

	tasks, err := r.client.Tasks.List(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Tasks.Count(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.Document{
		Data: jsonapi.TaskResources(tasks),
		Meta: &jsonapi.Meta{"total_count": total},
	})
}

// Get handles GET /api/v1/queue/{id}.
func (r *QueueRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid task id", err), r.logger)
		return
	}

	t, err := r.client.Tasks.Get(ctx, id)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusNotFound, "task not found", err), r.logger)
		return
	}

	resource := jsonapi.TaskResource(t)
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(&resource))
}

// Statuses handles GET /api/v1/queue/{id}/status, returning the progress
// records reported for a task, oldest first.
func (r *QueueRouter) Statuses(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid task id", err), r.logger)
		return
	}

	statuses, err := r.client.Statuses.FindByTrackable(ctx, task.TrackableTypeRun, id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]jsonapi.Resource, len(statuses))
	for i, s := range statuses {
		resources[i] = jsonapi.StatusResource(s)
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.Document{Data: resources})
}
