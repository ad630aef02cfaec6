package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)

	want := auth.Identity{
		UserID:         uuid.New(),
		OrganizationID: uuid.New(),
		Role:           model.RoleTeamManager,
		Email:          "manager@example.com",
	}

	token, err := tm.Generate(want)
	require.NoError(t, err)

	got, err := tm.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokenResolveFailures(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := tm.Resolve("not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := auth.NewTokenManager("different-secret", time.Hour)
		token, err := other.Generate(auth.Identity{
			UserID:         uuid.New(),
			OrganizationID: uuid.New(),
			Role:           model.RoleMember,
		})
		require.NoError(t, err)

		_, err = tm.Resolve(token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		stale := auth.NewTokenManager("secret", -time.Hour)
		token, err := stale.Generate(auth.Identity{
			UserID:         uuid.New(),
			OrganizationID: uuid.New(),
			Role:           model.RoleMember,
		})
		require.NoError(t, err)

		_, err = tm.Resolve(token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

// signRaw builds tokens with arbitrary claims so the malformed-context
// paths can be exercised directly.
func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenMalformedContext(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)

	t.Run("missing organization claim", func(t *testing.T) {
		token := signRaw(t, "secret", jwt.MapClaims{
			"user_id": uuid.NewString(),
			"role":    string(model.RoleMember),
		})
		_, err := tm.Resolve(token)
		assert.ErrorIs(t, err, domain.ErrMalformedContext)
	})

	t.Run("missing role claim", func(t *testing.T) {
		token := signRaw(t, "secret", jwt.MapClaims{
			"user_id":         uuid.NewString(),
			"organization_id": uuid.NewString(),
		})
		_, err := tm.Resolve(token)
		assert.ErrorIs(t, err, domain.ErrMalformedContext)
	})

	t.Run("unparseable organization id", func(t *testing.T) {
		token := signRaw(t, "secret", jwt.MapClaims{
			"user_id":         uuid.NewString(),
			"organization_id": "not-a-uuid",
			"role":            string(model.RoleMember),
		})
		_, err := tm.Resolve(token)
		assert.ErrorIs(t, err, domain.ErrMalformedContext)
	})

	t.Run("unknown role", func(t *testing.T) {
		token := signRaw(t, "secret", jwt.MapClaims{
			"user_id":         uuid.NewString(),
			"organization_id": uuid.NewString(),
			"role":            "SUPERUSER",
		})
		_, err := tm.Resolve(token)
		assert.ErrorIs(t, err, domain.ErrMalformedContext)
	})
}
