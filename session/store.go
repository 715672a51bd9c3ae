// Package session owns the authentication token and the signed-in user's
// identity. Everything else reads authentication state from here; nothing
// else writes it.
package session

import (
	"context"
	"strings"
	"sync"

	"miracmail/client"
	"miracmail/models"
	"miracmail/utils"
)

// TokenStore is durable, browser-scoped storage for the session token. The
// web handlers back it with the cookie session; tests use a memory store.
type TokenStore interface {
	// Token returns the stored token, or "" when signed out.
	Token() string
	// SetToken persists the token.
	SetToken(token string) error
	// Clear removes the token synchronously.
	Clear() error
}

// Manager is the single source of truth for "is the user authenticated" and
// "who are they". The profile is fetched lazily and cached until logout.
type Manager struct {
	client       *client.Client
	tokens       TokenStore
	domainSuffix string

	mu      sync.Mutex
	profile *models.UserProfile
}

// NewManager creates a session manager. domainSuffix is the organizational
// suffix (e.g. "@miracmail.com") required of registration addresses.
func NewManager(c *client.Client, tokens TokenStore, domainSuffix string) *Manager {
	return &Manager{client: c, tokens: tokens, domainSuffix: domainSuffix}
}

// Login authenticates against the mail service and persists the returned
// token. Nothing is persisted on failure.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	token, err := m.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return m.tokens.SetToken(token)
}

// Register validates the address suffix locally, then registers against the
// mail service and persists the returned token. A suffix violation fails
// before any network call is made.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	if !strings.HasSuffix(strings.ToLower(email), m.domainSuffix) {
		return utils.ValidationError("Only " + m.domainSuffix + " addresses can register")
	}
	token, err := m.client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	return m.tokens.SetToken(token)
}

// FetchProfile returns the signed-in user's profile, fetching it on first
// use. A 401 is returned to the caller as-is; the manager does not clear the
// token itself — that policy belongs to the caller (see config.AuthConfig).
func (m *Manager) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	m.mu.Lock()
	if m.profile != nil {
		p := *m.profile
		m.mu.Unlock()
		return &p, nil
	}
	m.mu.Unlock()

	// Capture the token at issue time so a logout mid-flight cannot swap
	// the request onto a different session.
	token := m.tokens.Token()
	if token == "" {
		return nil, utils.AuthError("Not signed in", nil)
	}

	profile, err := m.client.FetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()
	p := *profile
	return &p, nil
}

// Logout clears the persisted token and the cached profile. No network call.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()
	_ = m.tokens.Clear()
}

// IsAuthenticated reports whether a token is present. It does not validate
// the token against the service.
func (m *Manager) IsAuthenticated() bool {
	return m.tokens.Token() != ""
}

// Token returns the current token, or "" when signed out.
func (m *Manager) Token() string {
	return m.tokens.Token()
}
