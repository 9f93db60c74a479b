package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
)

// ErrSessionExpired is returned by Resume when the saved token has expired.
var ErrSessionExpired = errors.New("session expired")

// API is the account side of the remote API. *apiclient.Client satisfies it.
type API interface {
	Login(ctx context.Context, creds users.Credentials) (users.LoginResult, error)
	Register(ctx context.Context, reg users.Registration) (users.User, error)
}

// TokenSetter receives the bearer token whenever the session changes.
type TokenSetter interface {
	SetToken(token string)
}

// Store tracks the signed-in session. Loading is true while any login or
// registration call is outstanding.
type Store struct {
	api       API
	file      *SessionFile
	tokens    TokenSetter
	validator *validation.Validator
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	pending int
	session *Session
}

type StoreOption func(*Store)

// WithSessionFile persists sessions across processes.
func WithSessionFile(f *SessionFile) StoreOption {
	return func(s *Store) { s.file = f }
}

func WithTokenSetter(t TokenSetter) StoreOption {
	return func(s *Store) { s.tokens = t }
}

func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "auth_store").Logger()
	}
}

func WithStoreValidator(v *validation.Validator) StoreOption {
	return func(s *Store) {
		if v != nil {
			s.validator = v
		}
	}
}

func NewStore(api API, opts ...StoreOption) *Store {
	s := &Store{
		api:       api,
		validator: validation.New(),
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates and installs the resulting session. The error is
// returned unchanged so callers can read the server's message.
func (s *Store) Login(ctx context.Context, creds users.Credentials) error {
	creds = creds.Normalize()
	if err := creds.Validate(s.validator); err != nil {
		return err
	}

	done := s.begin()
	defer done()

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.Info().Err(err).Str("email", creds.Email).Msg("login failed")
		return err
	}

	session := &Session{Token: res.Token, User: res.User}
	if claims, err := ParseUnverified(res.Token); err == nil && claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := s.install(session); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", res.User.ID).Str("role", string(res.User.Role)).Msg("logged in")
	return nil
}

// Register creates an account. It does not sign the new user in.
func (s *Store) Register(ctx context.Context, reg users.Registration) error {
	reg = reg.Normalize()
	if err := reg.Validate(s.validator); err != nil {
		return err
	}

	done := s.begin()
	defer done()

	user, err := s.api.Register(ctx, reg)
	if err != nil {
		s.logger.Info().Err(err).Str("email", reg.Email).Msg("registration failed")
		return err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("registered")
	return nil
}

// Resume restores the saved session, if there is one and it has not
// expired. Without a session file it returns ErrNoSession.
func (s *Store) Resume() error {
	if s.file == nil {
		return ErrNoSession
	}
	session, err := s.file.Load()
	if err != nil {
		return err
	}
	if session.Expired(s.now()) {
		return ErrSessionExpired
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	if s.tokens != nil {
		s.tokens.SetToken(session.Token)
	}
	return nil
}

// Logout drops the session and its saved copy.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if s.tokens != nil {
		s.tokens.SetToken("")
	}
	if s.file != nil {
		return s.file.Remove()
	}
	return nil
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

// Session returns a copy of the current session, or nil.
func (s *Store) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func (s *Store) begin() func() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}
}

func (s *Store) install(session *Session) error {
	if s.file != nil {
		if err := s.file.Save(session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	if s.tokens != nil {
		s.tokens.SetToken(session.Token)
	}
	return nil
}
