package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/storage/memory"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	manager := auth.NewJWTManager("test-secret-test-secret-test-secret", time.Hour, "eventdesk")
	h := NewAuthHandler(memory.NewUserRepository(), manager, validation.New(), "test")
	h.BcryptCost = bcrypt.MinCost
	return h
}

func register(t *testing.T, h *AuthHandler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Register(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", body))
	return rec
}

func TestAuthHandlerRegister(t *testing.T) {
	h := newAuthHandler(t)

	rec := register(t, h, map[string]any{"name": "Ada", "email": " Ada@Example.com ", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data users.User `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.Data.ID)
	assert.Equal(t, "ada@example.com", body.Data.Email)
	assert.Equal(t, users.RoleUser, body.Data.Role)
	assert.NotContains(t, rec.Body.String(), "secret1")

	t.Run("duplicate email", func(t *testing.T) {
		rec := register(t, h, map[string]any{"name": "Ada", "email": "ada@example.com", "password": "secret1"})
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already registered", decodeProblem(t, rec).Message)
	})

	t.Run("short password", func(t *testing.T) {
		rec := register(t, h, map[string]any{"name": "Bo", "email": "bo@example.com", "password": "123"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "password must be at least 6 characters", decodeProblem(t, rec).Message)
	})

	t.Run("unknown role", func(t *testing.T) {
		rec := register(t, h, map[string]any{"name": "Bo", "email": "bo@example.com", "password": "secret1", "role": "root"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	h := newAuthHandler(t)
	require.Equal(t, http.StatusCreated, register(t, h, map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "secret1", "role": "admin",
	}).Code)

	t.Run("issues a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email": "ADA@example.com", "password": "secret1",
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data users.LoginResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, users.RoleAdmin, body.Data.User.Role)

		claims, err := h.JWT.Validate(body.Data.Token)
		require.NoError(t, err)
		assert.Equal(t, body.Data.User.ID, claims.Subject)
	})

	for name, creds := range map[string]map[string]any{
		"wrong password": {"email": "ada@example.com", "password": "nope"},
		"unknown email":  {"email": "eve@example.com", "password": "secret1"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", creds))

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Invalid email or password", decodeProblem(t, rec).Message)
		})
	}

	t.Run("missing password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "ada@example.com"}))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "password is required", decodeProblem(t, rec).Message)
	})
}
