package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"miracmail/config"
	"miracmail/models"
	"miracmail/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		baseURL: server.URL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get(AuthHeader))

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@miracmail.com", req.Email)
		assert.Equal(t, "hunter2", req.Password)

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer server.Close()

	token, err := newTestClient(server).Login(context.Background(), "user@miracmail.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid credentials"})
	}))
	defer server.Close()

	_, err := newTestClient(server).Login(context.Background(), "user@miracmail.com", "wrong")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindAuth))
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestLoginServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Server Error"})
	}))
	defer server.Close()

	_, err := newTestClient(server).Login(context.Background(), "user@miracmail.com", "pw")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindServer))
	assert.Contains(t, err.Error(), "Server Error")
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	_, err := newTestClient(server).Login(context.Background(), "user@miracmail.com", "pw")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindNetwork))
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)

		var req registerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Jo Doe", req.Name)

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-new"})
	}))
	defer server.Close()

	token, err := newTestClient(server).Register(context.Background(), "Jo Doe", "jo@miracmail.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-new", token)
}

func TestFetchUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/user", r.URL.Path)
		assert.Equal(t, "tok-123", r.Header.Get(AuthHeader))

		json.NewEncoder(w).Encode(models.UserProfile{Name: "Jo", Email: "jo@miracmail.com"})
	}))
	defer server.Close()

	profile, err := newTestClient(server).FetchUser(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "Jo", profile.Name)
	assert.Equal(t, "jo@miracmail.com", profile.Email)
}

func TestFetchFolderPaths(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "tok-123", r.Header.Get(AuthHeader))
		json.NewEncoder(w).Encode([]models.Email{
			{ID: "a1", To: "jo@miracmail.com", Subject: "Hi", Text: "Hello"},
		})
	}))
	defer server.Close()

	c := newTestClient(server)

	emails, err := c.FetchFolder(context.Background(), "tok-123", models.FolderInbox)
	require.NoError(t, err)
	assert.Equal(t, "/api/emails", gotPath)
	require.Len(t, emails, 1)
	assert.Equal(t, "a1", emails[0].ID)

	_, err = c.FetchFolder(context.Background(), "tok-123", models.FolderSent)
	require.NoError(t, err)
	assert.Equal(t, "/api/emails/sent", gotPath)
}

func TestSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/emails/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tok-123", r.Header.Get(AuthHeader))

		var draft models.Draft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, models.Draft{To: "a@miracmail.com", Subject: "Hi", Text: "Hello"}, draft)

		json.NewEncoder(w).Encode(map[string]string{"msg": "sent"})
	}))
	defer server.Close()

	err := newTestClient(server).Send(context.Background(), "tok-123", models.Draft{
		To: "a@miracmail.com", Subject: "Hi", Text: "Hello",
	})
	require.NoError(t, err)
}

func TestNewClient(t *testing.T) {
	c := NewClient(config.MailConfig{BaseURL: "http://localhost:5000", TimeoutSeconds: 10})
	assert.NotNil(t, c)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
}
