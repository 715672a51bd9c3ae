package web

import (
	"miracmail/middleware"

	fsession "github.com/gofiber/fiber/v2/middleware/session"
)

// cookieTokenStore adapts the cookie-backed Fiber session to
// session.TokenStore. This is the durable, browser-scoped storage the mail
// service token persists in across reloads.
type cookieTokenStore struct {
	sess *fsession.Session
}

func (s *cookieTokenStore) Token() string {
	token, _ := s.sess.Get(middleware.SessionTokenKey).(string)
	return token
}

func (s *cookieTokenStore) SetToken(token string) error {
	s.sess.Set(middleware.SessionTokenKey, token)
	return s.sess.Save()
}

func (s *cookieTokenStore) Clear() error {
	return s.sess.Destroy()
}
