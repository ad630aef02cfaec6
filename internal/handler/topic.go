// internal/handler/topic.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/service"
)

type TopicHandler struct {
	topicService *service.TopicService
}

func NewTopicHandler(topicService *service.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

func topicID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "topicID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid topic id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *TopicHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var input service.CreateTopicInput
	if !decodeBody(w, r, &input) {
		return
	}

	topic, err := h.topicService.Create(r.Context(), actor, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, topic)
}

func (h *TopicHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := topicID(w, r)
	if !ok {
		return
	}

	var input service.UpdateTopicInput
	if !decodeBody(w, r, &input) {
		return
	}

	topic, err := h.topicService.Update(r.Context(), actor, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, topic)
}

func (h *TopicHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := topicID(w, r)
	if !ok {
		return
	}

	if err := h.topicService.Delete(r.Context(), actor, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *TopicHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := topicID(w, r)
	if !ok {
		return
	}

	topic, err := h.topicService.Get(r.Context(), actor, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, topic)
}

// ListHandler returns every topic in the organization, active or not.
// Management roles only.
func (h *TopicHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	topics, err := h.topicService.List(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, topics)
}

// ListActiveHandler returns the active topics visible to the caller.
func (h *TopicHandler) ListActiveHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	topics, err := h.topicService.ListActive(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, topics)
}
