// internal/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskhive/taskhive/internal/service"
)

type AuthHandler struct {
	registrationService *service.RegistrationService
	authService         *service.AuthService
}

func NewAuthHandler(registrationService *service.RegistrationService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		registrationService: registrationService,
		authService:         authService,
	}
}

type RegisterResponse struct {
	BaseResponse
	*service.RegisterTeamOutput
}

// RegisterHandler creates a new organization with its first TEAM_MANAGER
// account.
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterTeamInput
	if !decodeBody(w, r, &input) {
		return
	}

	output, err := h.registrationService.RegisterTeam(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "Team registration error",
			"error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, RegisterResponse{
		BaseResponse:       BaseResponse{Ok: true},
		RegisterTeamOutput: output,
	})
}

type LoginResponse struct {
	BaseResponse
	*service.LoginOutput
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeBody(w, r, &input) {
		return
	}

	output, err := h.authService.Login(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "User login error",
			"error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Ok: true},
		LoginOutput:  output,
	})
}
