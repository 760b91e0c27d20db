// Package auth provisions anonymous session tokens for the chat UI. There
// are no user accounts: a session is a signed, expiring identifier that
// pins a browser to its conversation.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrSecretRequired = errors.New("auth: jwt secret required")
	ErrInvalidToken   = errors.New("auth: invalid session token")
)

// Session is an issued guest session.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// IssueSession mints a fresh session with a random identifier.
func (s *Service) IssueSession() (*Session, error) {
	id := uuid.NewString()
	expiresAt := time.Now().UTC().Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Session{ID: id, Token: signed, ExpiresAt: expiresAt}, nil
}

// VerifySession validates a session token and returns its session id.
func (s *Service) VerifySession(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
