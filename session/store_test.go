package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"miracmail/client"
	"miracmail/config"
	"miracmail/models"
	"miracmail/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domainSuffix = "@miracmail.com"

// fakeService counts requests so tests can assert which operations go to
// the network at all.
type fakeService struct {
	requests atomic.Int64
	server   *httptest.Server
}

func newFakeService(t *testing.T, handler http.HandlerFunc) *fakeService {
	t.Helper()
	f := &fakeService{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) client() *client.Client {
	return client.NewClient(config.MailConfig{BaseURL: f.server.URL, TimeoutSeconds: 5})
}

func TestLoginThenLogout(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	})

	mgr := NewManager(svc.client(), NewMemoryTokenStore(), domainSuffix)
	assert.False(t, mgr.IsAuthenticated())

	require.NoError(t, mgr.Login(context.Background(), "user@miracmail.com", "pw"))
	assert.True(t, mgr.IsAuthenticated())
	assert.Equal(t, "tok-123", mgr.Token())
	assert.Equal(t, int64(1), svc.requests.Load())

	// Logout is local: no further network traffic.
	mgr.Logout()
	assert.False(t, mgr.IsAuthenticated())
	assert.Empty(t, mgr.Token())
	assert.Equal(t, int64(1), svc.requests.Load())
}

func TestLoginFailurePersistsNothing(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid credentials"})
	})

	mgr := NewManager(svc.client(), NewMemoryTokenStore(), domainSuffix)
	err := mgr.Login(context.Background(), "user@miracmail.com", "wrong")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindAuth))
	assert.False(t, mgr.IsAuthenticated())
}

func TestRegisterDomainValidation(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-new"})
	})

	mgr := NewManager(svc.client(), NewMemoryTokenStore(), domainSuffix)

	// Wrong domain fails locally, before any network call.
	err := mgr.Register(context.Background(), "Jo", "user@other.com", "pw")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	assert.Equal(t, int64(0), svc.requests.Load())
	assert.False(t, mgr.IsAuthenticated())

	// The organizational domain goes through. Case-insensitive.
	require.NoError(t, mgr.Register(context.Background(), "Jo", "user@MiracMail.com", "pw"))
	assert.Equal(t, int64(1), svc.requests.Load())
	assert.True(t, mgr.IsAuthenticated())
}

func TestFetchProfile(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.Header.Get(client.AuthHeader))
		json.NewEncoder(w).Encode(models.UserProfile{Name: "Jo", Email: "jo@miracmail.com"})
	})

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.SetToken("tok-123"))
	mgr := NewManager(svc.client(), tokens, domainSuffix)

	profile, err := mgr.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jo", profile.Name)

	// The profile is cached until logout.
	_, err = mgr.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), svc.requests.Load())

	mgr.Logout()
	assert.Empty(t, tokens.Token())
}

func TestFetchProfileWithoutToken(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {})

	mgr := NewManager(svc.client(), NewMemoryTokenStore(), domainSuffix)
	_, err := mgr.FetchProfile(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindAuth))
	assert.Equal(t, int64(0), svc.requests.Load())
}

func TestFetchProfileRejectedTokenIsNotCleared(t *testing.T) {
	svc := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Token is not valid"})
	})

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.SetToken("stale-token"))
	mgr := NewManager(svc.client(), tokens, domainSuffix)

	_, err := mgr.FetchProfile(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindAuth))

	// The manager surfaces the 401; clearing the session is the caller's
	// policy decision, not the store's.
	assert.True(t, mgr.IsAuthenticated())
}
