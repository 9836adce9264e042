// Package auth gates entry points on the current user session.
package auth

import (
	"errors"
	"sync"
)

// ErrNotPermitted is returned by entry points when the capability check
// fails.
var ErrNotPermitted = errors.New("not permitted: user is not signed in or the session is still loading")

// Capability reports whether user-initiated work may run right now.
type Capability interface {
	CanRun() bool
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func() bool

// CanRun calls f.
func (f CapabilityFunc) CanRun() bool { return f() }

// Allow is a Capability that always permits.
var Allow Capability = CapabilityFunc(func() bool { return true })

// Check returns ErrNotPermitted when c is nil or refuses.
func Check(c Capability) error {
	if c == nil || !c.CanRun() {
		return ErrNotPermitted
	}
	return nil
}

// Session tracks whether a user is signed in and whether the session is
// still being established.
type Session struct {
	mu            sync.RWMutex
	user          string
	authenticated bool
	loading       bool
}

// NewSession returns a session signed in as user, or signed out when user
// is empty.
func NewSession(user string) *Session {
	s := &Session{}
	s.SignIn(user)
	return s
}

// CanRun is true for an authenticated session that is not loading.
func (s *Session) CanRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && !s.loading
}

// User returns the signed in user name.
func (s *Session) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetLoading marks the session as loading or ready.
func (s *Session) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// SignIn authenticates the session as user. An empty user signs out.
func (s *Session) SignIn(user string) {
	s.mu.Lock()
	s.user = user
	s.authenticated = user != ""
	s.mu.Unlock()
}

// SignOut clears the session.
func (s *Session) SignOut() {
	s.SignIn("")
}
