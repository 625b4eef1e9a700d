package regenapi

import (
	"sync"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// Session holds the signed-in user's tokens and last known profile. Every
// write goes through the client, so all readers see the same totals.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	profile      *entities.UserProfile
	listeners    []func(entities.UserProfile)
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{}
}

// Tokens returns the current token pair
func (s *Session) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// Restore seeds the session from tokens persisted elsewhere
func (s *Session) Restore(access, refresh string) {
	s.setTokens(access, refresh)
}

// Profile returns a copy of the last known profile
func (s *Session) Profile() (entities.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return entities.UserProfile{}, false
	}
	return *s.profile, true
}

// OnProfile registers fn to run after every profile change
func (s *Session) OnProfile(fn func(entities.UserProfile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SignedIn reports whether an access token is held
func (s *Session) SignedIn() bool {
	access, _ := s.Tokens()
	return access != ""
}

func (s *Session) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
}

func (s *Session) setProfile(profile entities.UserProfile) {
	s.mu.Lock()
	s.profile = &profile
	listeners := append([]func(entities.UserProfile){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(profile)
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.profile = nil
}
