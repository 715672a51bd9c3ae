// Package mailbox loads and holds one folder's messages, keeping previously
// fetched messages visible while a refresh is in flight or has failed
// (stale-while-revalidate). State is exposed as immutable snapshots with an
// explicit tag so callers never juggle nullable flags.
package mailbox

import (
	"context"
	"sync"

	"miracmail/client"
	"miracmail/models"
	"miracmail/utils"
)

// State tags a snapshot of the store.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot is an immutable view of the store. Emails may be stale: during a
// load, and after a failed one, the previously held collection remains
// visible with Stale set.
type Snapshot struct {
	State    State
	Folder   models.Folder
	Emails   []models.Email
	Stale    bool
	Err      error
	Selected *models.Email
}

// TokenSource yields the token a request should be issued under.
type TokenSource interface {
	Token() string
}

// Store is a single folder view's state machine:
// Idle -> Loading -> Ready, or Loading -> Error; Load from any state goes
// back to Loading.
type Store struct {
	client *client.Client
	tokens TokenSource

	mu         sync.Mutex
	state      State
	folder     models.Folder
	emails     []models.Email
	stale      bool
	err        error
	selectedID string
	gen        uint64

	subs map[string]chan Snapshot
}

// NewStore creates an idle store bound to a token source.
func NewStore(c *client.Client, tokens TokenSource) *Store {
	return &Store{
		client: c,
		tokens: tokens,
		state:  StateIdle,
		subs:   make(map[string]chan Snapshot),
	}
}

// Load fetches a folder and replaces the held collection wholesale. The
// previous collection stays visible (flagged stale) while the fetch runs and
// if it fails. A Load superseded by a newer one discards its response
// silently: last call wins.
func (s *Store) Load(ctx context.Context, folder models.Folder) error {
	// Capture the token at issue time, not at resolve time.
	token := s.tokens.Token()
	if token == "" {
		return utils.AuthError("Not signed in", nil)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.folder = folder
	s.stale = len(s.emails) > 0
	s.err = nil
	s.notifyLocked()
	s.mu.Unlock()

	emails, err := s.client.FetchFolder(ctx, token, folder)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer Load superseded this one; drop the response.
		return nil
	}
	if err != nil {
		s.state = StateError
		s.err = err
		s.notifyLocked()
		return err
	}
	s.emails = emails
	s.state = StateReady
	s.stale = false
	s.err = nil
	if s.selectedID != "" && s.findLocked(s.selectedID) == nil {
		s.selectedID = ""
	}
	s.notifyLocked()
	return nil
}

// Select marks the message with the given id as selected and returns it.
// An id not present in the current collection selects nothing and returns
// nil; it never fails. Selection is local to the caller's view and is never
// broadcast to folder subscribers; only Load transitions are.
func (s *Store) Select(id string) *models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(id)
	if e == nil {
		s.selectedID = ""
		return nil
	}
	s.selectedID = id
	copied := *e
	return &copied
}

// ClearSelection drops the current selection. Like Select, it does not
// notify subscribers.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:  s.state,
		Folder: s.folder,
		Emails: make([]models.Email, len(s.emails)),
		Stale:  s.stale,
		Err:    s.err,
	}
	copy(snap.Emails, s.emails)
	if e := s.findLocked(s.selectedID); e != nil {
		copied := *e
		snap.Selected = &copied
	}
	return snap
}

func (s *Store) findLocked(id string) *models.Email {
	if id == "" {
		return nil
	}
	for i := range s.emails {
		if s.emails[i].ID == id {
			return &s.emails[i]
		}
	}
	return nil
}
