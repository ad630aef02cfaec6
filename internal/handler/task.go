// internal/handler/task.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *TaskHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var input service.CreateTaskInput
	if !decodeBody(w, r, &input) {
		return
	}

	task, err := h.taskService.Create(r.Context(), actor, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var input service.UpdateTaskInput
	if !decodeBody(w, r, &input) {
		return
	}

	task, err := h.taskService.Update(r.Context(), actor, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

type UpdateStatusRequest struct {
	Status model.TaskStatus `json:"status"`
}

func (h *TaskHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var input UpdateStatusRequest
	if !decodeBody(w, r, &input) {
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), actor, id, input.Status)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), actor, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *TaskHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), actor, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// ListTeamHandler returns the team's active tasks in the shape the caller's
// role permits.
func (h *TaskHandler) ListTeamHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTeam(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListAll(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ListMyActiveHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListMyActive(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ListMyCompletedHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListMyCompleted(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}
