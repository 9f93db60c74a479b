package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid email or password"

type AuthHandler struct {
	Users      storage.UserRepository
	JWT        *auth.JWTManager
	Validator  *validation.Validator
	Env        string
	BcryptCost int
}

func NewAuthHandler(repo storage.UserRepository, jwt *auth.JWTManager, v *validation.Validator, env string) *AuthHandler {
	return &AuthHandler{Users: repo, JWT: jwt, Validator: v, Env: env, BcryptCost: bcrypt.DefaultCost}
}

// Register creates an account. It does not log the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg users.Registration
	if !decodeJSON(w, r, &reg, h.Env) {
		return
	}
	reg = reg.Normalize()
	reg.Name = sanitize.PlainText(reg.Name)
	if err := reg.Validate(h.Validator); err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), h.BcryptCost)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Registration failed", err, h.Env)
		return
	}

	user, err := h.Users.Create(r.Context(), storage.StoredUser{
		User:         users.User{Name: reg.Name, Email: reg.Email, Role: reg.Role},
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Registration failed", err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: user})
}

// Login answers {data: {token, user}}. Unknown emails and wrong passwords
// get the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds users.Credentials
	if !decodeJSON(w, r, &creds, h.Env) {
		return
	}
	creds = creds.Normalize()
	if err := creds.Validate(h.Validator); err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	stored, err := h.Users.GetByEmail(r.Context(), creds.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, invalidCredentials, err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Login failed", err, h.Env)
		return
	}
	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte(creds.Password)); err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, invalidCredentials, err, h.Env)
		return
	}

	token, err := h.JWT.Generate(stored.User)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Login failed", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: users.LoginResult{Token: token, User: stored.User}})
}
