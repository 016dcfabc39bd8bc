package service

import (
	"context"
	"errors"
	"testing"

	"cfs-assistant-go/internal/model"
	"cfs-assistant-go/pkg/backend"
	"cfs-assistant-go/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putSession(f *fixture, s model.Session) {
	for k, v := range s.Record() {
		f.store.Put(k, v)
	}
}

func TestRestoreCompleteSession(t *testing.T) {
	f := newFixture(t)
	want := model.Session{Username: "alice", Token: "tok", AccountID: "100200300400", MaskedAccountID: "********0400"}
	putSession(f, want)
	before := f.store.Snapshot()

	got, ok := f.sessions.Restore(context.Background())

	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, StateAuthenticated, f.sessions.State())
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, []string{kafka.EventRestored}, f.events.types())
}

func TestRestoreIncompleteSessionStaysAnonymous(t *testing.T) {
	full := model.Session{Username: "alice", Token: "tok", AccountID: "100200300400", MaskedAccountID: "********0400"}

	for _, missing := range model.SessionKeys {
		t.Run("missing "+missing, func(t *testing.T) {
			f := newFixture(t)
			for k, v := range full.Record() {
				if k != missing {
					f.store.Put(k, v)
				}
			}
			before := f.store.Snapshot()

			_, ok := f.sessions.Restore(context.Background())

			assert.False(t, ok)
			assert.Equal(t, StateAnonymous, f.sessions.State())
			assert.Equal(t, before, f.store.Snapshot(), "restore must not repair a partial session")
		})
	}

	t.Run("empty value", func(t *testing.T) {
		f := newFixture(t)
		putSession(f, full)
		f.store.Put(model.KeyMaskedAccountID, "")

		_, ok := f.sessions.Restore(context.Background())
		assert.False(t, ok)
		assert.Equal(t, StateAnonymous, f.sessions.State())
	})
}

func TestLoginPersistsSession(t *testing.T) {
	f := newFixture(t)

	got, err := f.sessions.Login(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, StateAuthenticated, f.sessions.State())
	assert.Equal(t, storedSession(got), f.store.Snapshot())
	assert.Len(t, f.store.Snapshot(), 4)
	assert.Equal(t, 0, f.conversation.Len(), "log stays empty until the welcome message is fetched")

	current, ok := f.sessions.Current()
	require.True(t, ok)
	assert.Equal(t, got, current)
	assert.Equal(t, []string{kafka.EventLoggedIn}, f.events.types())
}

func TestLoginRejected(t *testing.T) {
	cases := []struct {
		name   string
		detail string
		want   string
	}{
		{name: "backend detail", detail: "Invalid credentials", want: "Invalid credentials"},
		{name: "fallback", detail: "", want: InvalidCredentialsText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.backend.loginErr = &backend.StatusError{StatusCode: 401, Detail: tc.detail}

			_, err := f.sessions.Login(context.Background(), "alice", "wrong")

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tc.want, authErr.Message)
			assert.Equal(t, StateAnonymous, f.sessions.State())
			assert.Empty(t, f.store.Snapshot())
			assert.Equal(t, []string{kafka.EventLoginFailed}, f.events.types())
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("dial tcp 127.0.0.1:8000: connection refused")
	f.backend.loginErr = cause

	_, err := f.sessions.Login(context.Background(), "alice", "pw")

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, LoginConnectionText, connErr.Message)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateAnonymous, f.sessions.State())
}

func TestLoginRejectsIncompleteResponse(t *testing.T) {
	f := newFixture(t)
	f.backend.loginResp = &backend.LoginResponse{Token: "tok", Username: "alice"}

	_, err := f.sessions.Login(context.Background(), "alice", "pw")

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, LoginConnectionText, connErr.Message)
	assert.ErrorIs(t, err, backend.ErrMalformedResponse)
	assert.Equal(t, StateAnonymous, f.sessions.State())
	assert.Empty(t, f.store.Snapshot())
	_, ok := f.sessions.Current()
	assert.False(t, ok)
	assert.Equal(t, []string{kafka.EventLoginFailed}, f.events.types())

	// 缺少用户名时使用输入的用户名
	f.backend.loginResp = &backend.LoginResponse{Token: "tok", AccountID: "100200300400", MaskedAccountID: "********0400"}
	got, err := f.sessions.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Len(t, f.store.Snapshot(), 4)
}

func TestLoginRejectsBlankCredentialsLocally(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.Login(context.Background(), "  ", "pw")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, f.backend.loginCalls)
}

func TestLoginSucceedsWhenStoreWriteFails(t *testing.T) {
	f := newFixture(t)
	f.store.SaveErr = errors.New("disk full")

	_, err := f.sessions.Login(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, f.sessions.State())
	assert.Empty(t, f.store.Snapshot())
}

func TestLoginWhileAuthenticated(t *testing.T) {
	f := loggedIn(t)

	_, err := f.sessions.Login(context.Background(), "alice", "pw")

	assert.ErrorIs(t, err, ErrAlreadyAuthenticated)
	assert.Equal(t, 1, f.backend.loginCalls)
}

func TestLogoutClearsEverythingEvenWhenBackendFails(t *testing.T) {
	f := loggedIn(t)
	f.backend.logoutErr = errors.New("network unreachable")
	require.NotZero(t, f.conversation.Len())

	f.sessions.Logout(context.Background())

	assert.Equal(t, StateAnonymous, f.sessions.State())
	assert.Equal(t, 0, f.conversation.Len())
	assert.Empty(t, f.store.Snapshot())
	assert.Equal(t, []string{aliceLogin.Token}, f.backend.logoutCalls)
	_, ok := f.sessions.Current()
	assert.False(t, ok)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := loggedIn(t)

	f.sessions.Logout(context.Background())
	first := f.store.Snapshot()
	f.sessions.Logout(context.Background())

	assert.Equal(t, first, f.store.Snapshot())
	assert.Equal(t, StateAnonymous, f.sessions.State())
	assert.Equal(t, 0, f.conversation.Len())
	assert.Len(t, f.backend.logoutCalls, 1, "anonymous logout does not call the backend")
	assert.Equal(t, []string{kafka.EventLoggedIn, kafka.EventLoggedOut}, f.events.types())
}

func TestLogoutClearsPartialLeftovers(t *testing.T) {
	f := newFixture(t)
	f.store.Put(model.KeyAuthToken, "stale")

	f.sessions.Logout(context.Background())

	assert.Empty(t, f.store.Snapshot())
}

func TestEndSessionIgnoresStaleToken(t *testing.T) {
	f := loggedIn(t)

	f.sessions.EndSession(context.Background(), "some-older-token")

	assert.Equal(t, StateAuthenticated, f.sessions.State())
	assert.Len(t, f.store.Snapshot(), 4)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticating", StateAuthenticating.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
