// internal/handler/user.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

// GetProfileHandler returns the caller's own account.
func (h *UserHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Profile(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler lets the caller change their own name and password.
func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var input service.UpdateProfileInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var input service.CreateUserInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.userService.Create(r.Context(), actor, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var input service.UpdateUserInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.userService.Update(r.Context(), actor, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), actor, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	users, err := h.userService.List(r.Context(), actor)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
