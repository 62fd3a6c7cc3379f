package serverutils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	userID := uuid.New()

	token, err := m.Issue(userID, "master")
	require.NoError(t, err)

	identity, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "master", identity.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	userID := uuid.New()

	expired, err := NewTokenManager("secret", -time.Second).Issue(userID, "user")
	require.NoError(t, err)
	foreign, err := NewTokenManager("other", time.Hour).Issue(userID, "user")
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: userID.String()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "nobody"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":       "",
		"raw user id": userID.String(),
		"expired":     expired,
		"foreign key": foreign,
		"alg none":    noneAlg,
		"bad user id": badSubject,
		"not a token": "abc",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			assert.True(t, apperror.IsKind(err, apperror.KindAuth), "got %v", err)
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", NewJwtMiddleware(m), func(ctx *fiber.Ctx) error {
		identity, err := CurrentIdentity(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(identity.Role)
	})
	app.Get("/admin", NewJwtMiddleware(m), RequireRole("master"), func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	userToken, err := m.Issue(uuid.New(), "user")
	require.NoError(t, err)

	do := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", ""))
	assert.Equal(t, http.StatusUnauthorized, do("/me", "Bearer nonsense"))
	assert.Equal(t, http.StatusOK, do("/me", "Bearer "+userToken))
	assert.Equal(t, http.StatusForbidden, do("/admin", "Bearer "+userToken))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusUnauthorized, StatusFor(apperror.KindAuth))
	assert.Equal(t, fiber.StatusUnprocessableEntity, StatusFor(apperror.KindInvalidReference))
	assert.Equal(t, fiber.StatusServiceUnavailable, StatusFor(apperror.KindPersistence))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(apperror.Kind("other")))
}
