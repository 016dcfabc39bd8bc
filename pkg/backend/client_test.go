package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cfs-assistant-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

func TestLoginSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, loginRequest{Username: "alice", Password: "pw"}, req)
		_, _ = w.Write([]byte(`{"status":"success","token":"t1","username":"alice","accountId":"100200300400","maskedAccountId":"********0400"}`))
	})

	resp, err := c.Login(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.Equal(t, &LoginResponse{Token: "t1", Username: "alice", AccountID: "100200300400", MaskedAccountID: "********0400"}, resp)
}

func TestLoginRejectedCarriesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
	})

	_, err := c.Login(context.Background(), "alice", "bad")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "Invalid credentials", se.Detail)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestStatusErrorWithStructuredDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","password"],"msg":"field required"}]}`))
	})

	_, err := c.Login(context.Background(), "alice", "")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Detail, "field required")
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "statements", req.Message)
		assert.Equal(t, "t1", req.Token)
		_, _ = w.Write([]byte(`{"response":"Found 1","documents":[{"name":"100200300400_monthly.pdf","path":"/x","type":"monthly","size":2048,"download_url":"/api/download/100200300400_monthly.pdf"}]}`))
	})

	resp, err := c.Chat(context.Background(), "statements", "t1")

	require.NoError(t, err)
	assert.Equal(t, "Found 1", resp.Response)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "100200300400_monthly.pdf", resp.Documents[0].Name)
	assert.Equal(t, "monthly", resp.Documents[0].Type)
	assert.Equal(t, int64(2048), resp.Documents[0].SizeBytes)
}

func TestChatNullDocuments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"hello","documents":null}`))
	})

	resp, err := c.Chat(context.Background(), "hi", "t1")

	require.NoError(t, err)
	assert.Nil(t, resp.Documents)
}

func TestChatUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid or expired session. Please login again."}`))
	})

	_, err := c.Chat(context.Background(), "hi", "stale")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChatMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":         `<html>oops</html>`,
		"missing response": `{"documents":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.Chat(context.Background(), "hi", "t1")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestWelcome(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"message":"Hi there","status":"ready"}`))
	})

	msg, err := c.Welcome(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Hi there", msg)
}

func TestLogoutSendsToken(t *testing.T) {
	var got logoutRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"logged out"}`))
	})

	require.NoError(t, c.Logout(context.Background(), "t1"))
	assert.Equal(t, "t1", got.Token)
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)
	c := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := c.Welcome(context.Background())

	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestDownloadURL(t *testing.T) {
	c := NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:8000/"})

	link := c.DownloadURL("march statement.pdf", "a+b/c")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/download/march statement.pdf", u.Path)
	assert.Equal(t, "a+b/c", u.Query().Get("token"))
	assert.NotEqual(t, link, c.DownloadURL("march statement.pdf", "other"))
}
