package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/models"
	"github.com/rfaulk/flicklist/internal/parser"
	"github.com/rfaulk/flicklist/internal/queue"
	"github.com/rfaulk/flicklist/internal/validation"
	"go.uber.org/zap"
)

const (
	// MaxTaskTextLength is the maximum length for task input text
	MaxTaskTextLength = 10000
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo database.TaskRepositoryInterface
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo database.TaskRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{taskRepo: taskRepo, jobQueue: jobQueue, logger: logger}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

// CreateTaskRequest represents a create task request. Text is free-form input
// that may carry date phrases, priority markers, and #tags.
type CreateTaskRequest struct {
	Text        string `json:"text" validate:"required,min=1,max=10000"`
	Description string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
}

// ListTasks lists tasks, optionally filtered by completion state and tag
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var completed *bool
	if c := r.URL.Query().Get("completed"); c != "" {
		parsed, err := strconv.ParseBool(c)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid completed filter (must be true or false)")
			return
		}
		completed = &parsed
	}

	var tag *string
	if t := r.URL.Query().Get("tag"); t != "" {
		tag = &t
	}

	tasks, err := h.taskRepo.List(ctx, completed, tag)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask parses free-form input into a task, stores it immediately, and
// queues AI enrichment in the background. The response never waits on the AI.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		// Check if error is due to request size limit
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	// Validate request
	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	// Sanitize text input
	req.Text = validation.SanitizeText(req.Text)
	if req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}

	draft := parser.Parse(req.Text)
	if draft.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text contains no task title after removing date, priority, and tag tokens")
		return
	}

	now := time.Now()
	dueDate := now
	if draft.DueDate != nil {
		dueDate = *draft.DueDate
	}

	ctx := r.Context()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       draft.Title,
		Description: validation.SanitizeText(req.Description),
		DueDate:     dueDate,
		Tags:        draft.Tags,
		Priority:    draft.Priority,
		CreatedAt:   now,
	}

	if err := h.taskRepo.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	h.enqueueEnrichment(r, task.ID)

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task. Changing the title or due date queues
// a fresh enrichment pass since the old reminder may no longer fit.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	task, err := h.taskRepo.GetByID(ctx, id)
	if err != nil {
		respondTaskError(w, err)
		return
	}

	var req UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	reEnrich := false

	// Update fields if provided with validation
	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTaskTextLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTaskTextLength))
			return
		}
		task.Title = sanitized
		reEnrich = true
	}
	if req.Description != nil {
		task.Description = validation.SanitizeText(*req.Description)
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
		reEnrich = true
	}
	if req.Tags != nil {
		task.Tags = *req.Tags
	}
	if req.Priority != nil {
		if err := validation.ValidatePriority(*req.Priority); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		priority := models.Priority(*req.Priority)
		task.Priority = &priority
	}

	if err := h.taskRepo.Update(ctx, task); err != nil {
		respondTaskError(w, err)
		return
	}

	if reEnrich && !task.Completed {
		h.enqueueEnrichment(r, task.ID)
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(r.Context(), id); err != nil {
		respondTaskError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed. Completing an already completed
// task is a no-op and returns the task unchanged.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.taskRepo.Complete(ctx, id, time.Now()); err != nil {
		respondTaskError(w, err)
		return
	}

	task, err := h.taskRepo.GetByID(ctx, id)
	if err != nil {
		respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// enqueueEnrichment queues a background enrichment job for the task. Failures
// are logged, not surfaced: the task itself is already persisted.
func (h *TaskHandler) enqueueEnrichment(r *http.Request, taskID uuid.UUID) {
	if h.jobQueue == nil {
		return
	}
	job := queue.NewEnrichmentJob(taskID)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("enrichment_enqueue_failed",
			zap.String("task_id", taskID.String()),
			zap.Error(err),
		)
	}
}

// parseTaskID extracts and parses the {id} path variable, writing a 400
// response on failure.
func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondTaskError maps repository errors onto HTTP responses.
func respondTaskError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrTaskNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Operation failed")
}
