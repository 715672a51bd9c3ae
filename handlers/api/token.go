package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// apiClaims wraps the mail service token in a short-lived JWT handed to the
// browser for HTMX/JSON calls, so the raw service token never appears in
// markup.
type apiClaims struct {
	MailToken string `json:"mail_token"`
	jwt.RegisteredClaims
}

// GenerateToken signs a JWT carrying the mail service token.
func GenerateToken(mailToken, secret string, ttl time.Duration) (string, error) {
	claims := apiClaims{
		MailToken: mailToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies a JWT and returns the mail service token inside it.
func ParseToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &apiClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*apiClaims)
	if !ok || !token.Valid || claims.MailToken == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.MailToken, nil
}
