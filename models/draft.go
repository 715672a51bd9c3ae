package models

// Draft is the in-progress, unsent message being composed. It stays mutable
// until submission and is reset to empty after a successful send or discard.
type Draft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Complete reports whether every field required for sending is filled in.
func (d Draft) Complete() bool {
	return d.To != "" && d.Subject != "" && d.Text != ""
}

// Empty reports whether the draft holds no content at all.
func (d Draft) Empty() bool {
	return d == Draft{}
}
