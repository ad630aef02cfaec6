// internal/auth/token.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
)

type TokenManager struct {
	secret       []byte
	expiryPeriod time.Duration
}

func NewTokenManager(secret string, expiryPeriod time.Duration) *TokenManager {
	return &TokenManager{
		secret:       []byte(secret),
		expiryPeriod: expiryPeriod,
	}
}

type Claims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	Email          string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a token carrying the caller's identity and organization scope.
func (tm *TokenManager) Generate(id Identity) (string, error) {
	claims := Claims{
		UserID:         id.UserID.String(),
		OrganizationID: id.OrganizationID.String(),
		Role:           string(id.Role),
		Email:          id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.expiryPeriod)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Resolve verifies a bearer token and produces the immutable Identity that is
// threaded through every use case. A token whose signature checks out but
// which lacks an organization or role claim is rejected outright.
func (tm *TokenManager) Resolve(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthenticated)
	}

	if claims.OrganizationID == "" || claims.Role == "" {
		return Identity{}, domain.ErrMalformedContext
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject id", domain.ErrMalformedContext)
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad organization id", domain.ErrMalformedContext)
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown role %q", domain.ErrMalformedContext, claims.Role)
	}

	return Identity{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Email:          claims.Email,
	}, nil
}
