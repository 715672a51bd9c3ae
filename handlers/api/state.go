package api

import (
	"sync"

	"miracmail/client"
	"miracmail/compose"
	"miracmail/mailbox"
	"miracmail/models"
	"miracmail/session"
)

// UserState is the per-browsing-session application state: one mailbox store
// per folder and the current compose workflow. Mailbox and draft state are
// rebuilt from scratch each browsing session; only the token is durable.
type UserState struct {
	Tokens *session.MemoryTokenStore
	Inbox  *mailbox.Store
	Sent   *mailbox.Store

	mu      sync.Mutex
	compose *compose.Workflow
	client  *client.Client
}

// Mailbox returns the store for a folder.
func (s *UserState) Mailbox(folder models.Folder) *mailbox.Store {
	if folder == models.FolderSent {
		return s.Sent
	}
	return s.Inbox
}

// Compose returns the active workflow, starting a fresh one when none exists
// or the previous draft finished in Sent.
func (s *UserState) Compose() *compose.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compose == nil || s.compose.Snapshot().State == compose.StateSent {
		s.compose = compose.NewWorkflow(s.client, s.Tokens)
	}
	return s.compose
}

// Registry hands out UserState keyed by the mail service token, creating it
// on first sight and dropping it at logout.
type Registry struct {
	client *client.Client

	mu     sync.Mutex
	states map[string]*UserState
}

// NewRegistry creates an empty registry over a mail service client.
func NewRegistry(c *client.Client) *Registry {
	return &Registry{
		client: c,
		states: make(map[string]*UserState),
	}
}

// Acquire returns the state for a token, creating it when absent.
func (r *Registry) Acquire(token string) *UserState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[token]; ok {
		return state
	}
	tokens := session.NewMemoryTokenStore()
	_ = tokens.SetToken(token)
	state := &UserState{
		Tokens: tokens,
		Inbox:  mailbox.NewStore(r.client, tokens),
		Sent:   mailbox.NewStore(r.client, tokens),
		client: r.client,
	}
	r.states[token] = state
	return state
}

// Drop discards a token's state. In-flight loads under that token resolve
// into the discarded state and are never seen again.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[token]; ok {
		_ = state.Tokens.Clear()
		delete(r.states, token)
	}
}
