package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAPI struct {
	login    func(ctx context.Context, creds users.Credentials) (users.LoginResult, error)
	register func(ctx context.Context, reg users.Registration) (users.User, error)
}

func (f *fakeAuthAPI) Login(ctx context.Context, creds users.Credentials) (users.LoginResult, error) {
	return f.login(ctx, creds)
}

func (f *fakeAuthAPI) Register(ctx context.Context, reg users.Registration) (users.User, error) {
	return f.register(ctx, reg)
}

type tokenRecorder struct{ token string }

func (r *tokenRecorder) SetToken(token string) { r.token = token }

func TestStore_LoginInstallsSession(t *testing.T) {
	token, err := NewJWTManager("s", time.Hour, "mock").Generate(ada)
	require.NoError(t, err)

	api := &fakeAuthAPI{login: func(_ context.Context, creds users.Credentials) (users.LoginResult, error) {
		assert.Equal(t, "ada@example.com", creds.Email)
		return users.LoginResult{Token: token, User: ada}, nil
	}}
	tokens := &tokenRecorder{}
	file := NewSessionFile(filepath.Join(t.TempDir(), "nested", "session.yaml"))
	s := NewStore(api, WithTokenSetter(tokens), WithSessionFile(file))

	require.NoError(t, s.Login(context.Background(), users.Credentials{Email: " Ada@Example.com ", Password: "pw"}))

	session := s.Session()
	require.NotNil(t, session)
	assert.Equal(t, token, session.Token)
	assert.Equal(t, ada, session.User)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
	assert.Equal(t, token, tokens.token)
	assert.False(t, s.Loading())

	info, err := os.Stat(file.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	saved, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, token, saved.Token)
}

func TestStore_LoginFailureReturnsAPIError(t *testing.T) {
	apiErr := errors.New("Invalid credentials")
	api := &fakeAuthAPI{login: func(context.Context, users.Credentials) (users.LoginResult, error) {
		return users.LoginResult{}, apiErr
	}}
	s := NewStore(api)

	err := s.Login(context.Background(), users.Credentials{Email: "ada@example.com", Password: "bad"})
	assert.ErrorIs(t, err, apiErr)
	assert.Nil(t, s.Session())
	assert.False(t, s.Loading())
}

func TestStore_LoadingWhileCallOutstanding(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeAuthAPI{register: func(context.Context, users.Registration) (users.User, error) {
		close(entered)
		<-release
		return users.User{ID: "u1"}, nil
	}}
	s := NewStore(api)

	done := make(chan error)
	go func() {
		done <- s.Register(context.Background(), users.Registration{Name: "Bo", Email: "bo@example.com", Password: "secret1"})
	}()
	<-entered
	assert.True(t, s.Loading())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())
	assert.Nil(t, s.Session(), "registration does not sign in")
}

func TestStore_RegisterValidates(t *testing.T) {
	api := &fakeAuthAPI{register: func(context.Context, users.Registration) (users.User, error) {
		t.Error("no request expected")
		return users.User{}, nil
	}}
	s := NewStore(api)

	err := s.Register(context.Background(), users.Registration{Name: "Bo", Email: "not-an-email", Password: "123", Role: "owner"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	_, hasEmail := verr.Field("email")
	_, hasPassword := verr.Field("password")
	_, hasRole := verr.Field("role")
	assert.True(t, hasEmail)
	assert.True(t, hasPassword)
	assert.True(t, hasRole)
}

func TestStore_ResumeAndLogout(t *testing.T) {
	file := NewSessionFile(filepath.Join(t.TempDir(), "session.yaml"))
	tokens := &tokenRecorder{}
	s := NewStore(&fakeAuthAPI{}, WithSessionFile(file), WithTokenSetter(tokens))

	assert.ErrorIs(t, s.Resume(), ErrNoSession)

	require.NoError(t, file.Save(&Session{Token: "tok", User: ada, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Resume())
	assert.Equal(t, "tok", tokens.token)
	assert.Equal(t, ada.Email, s.Session().User.Email)

	require.NoError(t, s.Logout())
	assert.Nil(t, s.Session())
	assert.Empty(t, tokens.token)
	_, err := file.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Logout(), "logout without a saved session")
}

func TestStore_ResumeExpired(t *testing.T) {
	file := NewSessionFile(filepath.Join(t.TempDir(), "session.yaml"))
	require.NoError(t, file.Save(&Session{Token: "tok", ExpiresAt: time.Now().Add(-time.Minute)}))

	s := NewStore(&fakeAuthAPI{}, WithSessionFile(file))
	assert.ErrorIs(t, s.Resume(), ErrSessionExpired)
	assert.Nil(t, s.Session())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, (&Session{}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Second)}).Expired(now))
}

func TestSessionFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := NewSessionFile(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}
