package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/middleware"
)

type ErrorResponse struct {
	BaseResponse
	Error string `json:"error"`
	Code  string `json:"error_code,omitempty"`
}

type BaseResponse struct {
	Ok bool `json:"ok"`
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// respondWithDomainError maps service errors onto HTTP statuses. Cross
// organization access is reported as not found so callers cannot probe
// for resources outside their organization.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Unhandled service error",
			"error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithJSON(w, status, ErrorResponse{Error: "Internal server error", Code: domain.CodeInternal})
		return
	}
	respondWithJSON(w, status, ErrorResponse{Error: err.Error(), Code: domain.Code(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountInactive):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrMalformedContext):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbiddenRole),
		errors.Is(err, domain.ErrForbiddenOwnership),
		errors.Is(err, domain.ErrOrganizationInactive):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrCrossOrganizationAccess),
		errors.Is(err, domain.ErrInvalidTopic),
		errors.Is(err, domain.ErrOrganizationNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEntry),
		errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAssignee),
		errors.Is(err, domain.ErrInactiveTopic),
		errors.Is(err, domain.ErrSlugGenerationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// identity pulls the caller identity placed by the auth middleware. A
// missing identity means the route was wired without it.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing authentication context")
		return auth.Identity{}, false
	}
	return id, true
}

// decodeBody parses the JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	defer r.Body.Close()
	return true
}
