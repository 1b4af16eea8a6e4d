package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/api/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
)

// TaskHandler handles task-related API requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// requirePrincipal extracts the authenticated principal or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return auth.Principal{}, false
	}
	return principal, true
}

// pathUUID extracts and parses a UUID path parameter or writes a 400.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	assignmentType := domain.AssignmentType(req.AssignmentType)
	if req.AssignmentType == "" {
		assignmentType = domain.AssignmentAny
	}

	task, err := h.taskService.CreateTask(r.Context(), principal, domain.NewTaskParams{
		Title:           req.Title,
		Description:     req.Description,
		DueDate:         req.DueDate,
		Reward:          req.Reward,
		AssignmentType:  assignmentType,
		AssignedTo:      req.AssignedTo,
		AssignedUserIDs: req.AssignedUserIDs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), principal, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// List handles GET /api/tasks. Supported query parameters: skip, limit,
// state, include_archived, include_created.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	params := service.TaskListParams{
		Skip:            queryInt(r, "skip", 0),
		Limit:           queryInt(r, "limit", 100),
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
	}
	if raw := r.URL.Query().Get("include_created"); raw != "" {
		includeCreated := raw == "true"
		params.IncludeCreated = &includeCreated
	}
	if raw := r.URL.Query().Get("state"); raw != "" {
		state := domain.TaskState(raw)
		if !state.Valid() {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid state filter")
			return
		}
		params.State = &state
	}

	tasks, err := h.taskService.ListTasks(r.Context(), principal, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Search handles GET /api/tasks/search?q=term.
func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing search term")
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), principal, service.TaskListParams{
		Skip:  queryInt(r, "skip", 0),
		Limit: queryInt(r, "limit", 100),
		Query: query,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Due handles GET /api/tasks/due, returning tasks overdue or due within
// the next 24 hours.
func (h *TaskHandler) Due(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.DueTasks(r.Context(), principal)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Random handles GET /api/tasks/random.
func (h *TaskHandler) Random(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.RandomTask(r.Context(), principal)
	if err != nil {
		HandleAPIError(w, r, err, "No actionable tasks available")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Update handles PATCH /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	update := &domain.TaskUpdate{
		Title:           req.Title,
		Description:     req.Description,
		DueDate:         req.DueDate,
		ClearDueDate:    req.ClearDueDate,
		Reward:          req.Reward,
		AssignedTo:      req.AssignedTo,
		AssignedUserIDs: req.AssignedUserIDs,
	}
	if req.AssignmentType != nil {
		at := domain.AssignmentType(*req.AssignmentType)
		update.AssignmentType = &at
	}

	task, err := h.taskService.UpdateTask(r.Context(), principal, id, update)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}. Tasks are never removed from
// storage; deletion archives.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.ArchiveTask(r.Context(), principal, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Start handles POST /api/tasks/{id}/start.
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.taskService.StartTask)
}

// Complete handles POST /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.taskService.CompleteTask)
}

// Reset handles POST /api/tasks/{id}/reset.
func (h *TaskHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.taskService.ResetTask)
}

func (h *TaskHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, principal auth.Principal, id uuid.UUID) (*domain.Task, error),
) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := op(r.Context(), principal, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Print handles POST /api/tasks/{id}/print.
func (h *TaskHandler) Print(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.PrintTask(r.Context(), principal, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{"status": "printed"})
}
