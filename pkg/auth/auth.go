package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrUnauthenticated = errors.New("request is not authenticated")

// Session identifies the player behind a request
type Session struct {
	UserID      string
	DisplayName string
	Guest       bool
}

// Service resolves a bearer token to a session
type Service interface {
	Authenticate(ctx context.Context, token string) (*Session, error)
}

// StaticService authenticates against a fixed token table and can mint guest
// sessions for anonymous play. Suited to development and single-tenant
// deployments; a real identity provider slots in behind the same interface.
type StaticService struct {
	mu          sync.Mutex
	tokens      map[string]*Session
	guests      map[string]*Session
	allowGuests bool
}

// NewStaticService builds a service from a token -> user table
func NewStaticService(tokens map[string]string, allowGuests bool) *StaticService {
	s := &StaticService{
		tokens:      make(map[string]*Session, len(tokens)),
		guests:      make(map[string]*Session),
		allowGuests: allowGuests,
	}
	for token, userID := range tokens {
		s.tokens[token] = &Session{UserID: userID, DisplayName: userID}
	}
	return s
}

// Authenticate resolves the token. Guest tokens are minted on first sight and
// stay stable for the life of the process, so one browser keeps one identity.
func (s *StaticService) Authenticate(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.tokens[token]; ok {
		return session, nil
	}

	if !s.allowGuests {
		return nil, ErrUnauthenticated
	}

	if session, ok := s.guests[token]; ok {
		return session, nil
	}
	session := &Session{
		UserID:      "guest-" + uuid.New().String(),
		DisplayName: "Guest",
		Guest:       true,
	}
	s.guests[token] = session
	return session, nil
}
