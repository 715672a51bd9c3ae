package mailbox

import (
	"strings"

	"miracmail/models"
)

// Filter returns the messages matching query: a case-insensitive substring
// match over subject, the address fields and the text body; any one field
// matching includes the message. An empty query returns the input unchanged.
// Order is preserved; the server's ordering is never re-sorted here.
func Filter(emails []models.Email, query string) []models.Email {
	if query == "" {
		return emails
	}
	q := strings.ToLower(query)
	var matched []models.Email
	for _, e := range emails {
		if Matches(&e, q) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Matches reports whether the lowercased query is a substring of the
// message's subject, an address field or its text body.
func Matches(e *models.Email, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(e.Subject), loweredQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(e.To), loweredQuery) {
		return true
	}
	if e.From != "" && strings.Contains(strings.ToLower(e.From), loweredQuery) {
		return true
	}
	return strings.Contains(strings.ToLower(e.Text), loweredQuery)
}
