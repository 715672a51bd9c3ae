// Package compose owns the in-progress draft and its submission lifecycle:
// Editing -> Submitting -> Sent or SubmitError. A failed submission keeps
// the draft intact for a manual retry; a successful one clears it and the
// workflow is done for that draft.
package compose

import (
	"context"
	"sync"

	"miracmail/client"
	"miracmail/models"
	"miracmail/utils"
)

// State tags the workflow's submission lifecycle.
type State string

const (
	StateEditing     State = "editing"
	StateSubmitting  State = "submitting"
	StateSent        State = "sent"
	StateSubmitError State = "error"
)

// ErrSubmitInFlight is returned when Submit is called while a submission is
// already running. The duplicate call has no observable effect.
var ErrSubmitInFlight = utils.ValidationError("A submission is already in progress")

// TokenSource yields the token a send should be issued under.
type TokenSource interface {
	Token() string
}

// Snapshot is an immutable view of the workflow.
type Snapshot struct {
	State State
	Draft models.Draft
	Err   error
}

// Workflow drives one draft through composition and submission.
type Workflow struct {
	client *client.Client
	tokens TokenSource

	mu    sync.Mutex
	state State
	draft models.Draft
	err   error
}

// NewWorkflow creates a workflow with an empty draft, ready for editing.
func NewWorkflow(c *client.Client, tokens TokenSource) *Workflow {
	return &Workflow{client: c, tokens: tokens, state: StateEditing}
}

// UpdateField replaces one draft field. Editing a field after a failed
// submission returns the workflow to Editing; edits while Submitting or
// after Sent are ignored.
func (w *Workflow) UpdateField(name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting || w.state == StateSent {
		return
	}
	switch name {
	case "to":
		w.draft.To = value
	case "subject":
		w.draft.Subject = value
	case "text":
		w.draft.Text = value
	default:
		return
	}
	w.state = StateEditing
	w.err = nil
}

// SetDraft replaces the whole draft in one edit, with UpdateField semantics.
func (w *Workflow) SetDraft(d models.Draft) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting || w.state == StateSent {
		return
	}
	w.draft = d
	w.state = StateEditing
	w.err = nil
}

// Submit sends the draft. All three fields must be non-empty and a session
// token must be present. At most one submission runs at a time; a second
// Submit while Submitting returns ErrSubmitInFlight without touching state.
// On success the draft is cleared and the workflow ends in Sent; on failure
// the draft is preserved verbatim and the workflow moves to SubmitError.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	if w.state == StateSent {
		w.mu.Unlock()
		return utils.ValidationError("This draft has already been sent")
	}
	if !w.draft.Complete() {
		w.mu.Unlock()
		return utils.ValidationError("To, subject and message are all required")
	}
	draft := w.draft
	w.state = StateSubmitting
	w.err = nil
	w.mu.Unlock()

	// Token captured at issue time.
	token := w.tokens.Token()
	if token == "" {
		err := utils.AuthError("Not signed in", nil)
		w.fail(err)
		return err
	}

	if err := w.client.Send(ctx, token, draft); err != nil {
		w.fail(err)
		return err
	}

	w.mu.Lock()
	w.state = StateSent
	w.draft = models.Draft{}
	w.mu.Unlock()
	return nil
}

func (w *Workflow) fail(err error) {
	w.mu.Lock()
	w.state = StateSubmitError
	w.err = err
	w.mu.Unlock()
}

// Discard clears the draft and resets the workflow for a fresh one.
func (w *Workflow) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return
	}
	w.draft = models.Draft{}
	w.state = StateEditing
	w.err = nil
}

// Snapshot returns an immutable view of the workflow.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{State: w.state, Draft: w.draft, Err: w.err}
}
