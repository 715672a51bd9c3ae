package models

import (
	"time"
)

// Folder is a server-defined partition of a user's emails. The client never
// moves a message between folders; it only reloads them.
type Folder string

const (
	FolderInbox Folder = "inbox"
	FolderSent  Folder = "sent"
)

// Valid reports whether f is one of the folders the remote service serves.
func (f Folder) Valid() bool {
	return f == FolderInbox || f == FolderSent
}

// AddressField returns the address field relevant for display and search in
// this folder: the recipient for Sent, the sender for Inbox.
func (f Folder) AddressField(e *Email) string {
	if f == FolderInbox && e.From != "" {
		return e.From
	}
	return e.To
}

// Email represents a message as returned by the mail service. The service
// uses Mongo-style "_id" identifiers; the client treats them as opaque and
// the message itself as read-only.
type Email struct {
	ID        string    `json:"_id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
