package models

// UserProfile is the identity of the signed-in user as reported by the mail
// service. It is immutable once fetched; a refetch replaces it wholesale.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
