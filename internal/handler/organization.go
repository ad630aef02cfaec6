// internal/handler/organization.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/service"
)

type OrganizationHandler struct {
	organizationService *service.OrganizationService
}

func NewOrganizationHandler(organizationService *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{organizationService: organizationService}
}

func orgID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid organization id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrganizationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := orgID(w, r)
	if !ok {
		return
	}

	org, err := h.organizationService.Get(r.Context(), actor, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := orgID(w, r)
	if !ok {
		return
	}

	var input service.UpdateOrganizationInput
	if !decodeBody(w, r, &input) {
		return
	}

	org, err := h.organizationService.Update(r.Context(), actor, id, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := orgID(w, r)
	if !ok {
		return
	}

	stats, err := h.organizationService.Stats(r.Context(), actor, id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *OrganizationHandler) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := orgID(w, r)
	if !ok {
		return
	}

	if err := h.organizationService.Activate(r.Context(), actor, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *OrganizationHandler) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := orgID(w, r)
	if !ok {
		return
	}

	if err := h.organizationService.Deactivate(r.Context(), actor, id); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
