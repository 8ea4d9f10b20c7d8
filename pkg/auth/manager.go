package auth

import (
	"context"
	"sync"
)

// Manager tracks the active session for a single-session deployment and
// notifies listeners when it changes. It mirrors the sign-in/sign-out
// lifecycle a hosted identity provider would drive.
type Manager struct {
	mu        sync.Mutex
	current   *Session
	listeners []func(*Session)
}

// NewManager creates a session manager with no active session
func NewManager() *Manager {
	return &Manager{}
}

// GetSession returns the active session, or nil when signed out
func (m *Manager) GetSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

// OnChange registers a listener for session transitions. Listeners are
// called with the new session, or nil on sign-out.
func (m *Manager) OnChange(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// SignIn installs the session and notifies listeners
func (m *Manager) SignIn(session *Session) {
	m.mu.Lock()
	m.current = session
	listeners := append([]func(*Session){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(session)
	}
}

// SignOut clears the active session and notifies listeners
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	listeners := append([]func(*Session){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
	return nil
}
