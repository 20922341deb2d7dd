package models

import (
	"fmt"
	"time"
)

// Session is a browser session keyed by the sessionId cookie.
//
// It carries the client state that outlives a single request: which playlist the user last opened.
type Session struct {
	id               string
	selectedPlaylist string
	createdAt        time.Time
	lastSeenAt       time.Time
}

// NewSession creates a session with the given id, stamped with the current time.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{id: id, createdAt: now, lastSeenAt: now}
}

// RestoreSession rebuilds a session loaded from storage.
func RestoreSession(id, selectedPlaylist string, createdAt, lastSeenAt time.Time) *Session {
	return &Session{id: id, selectedPlaylist: selectedPlaylist, createdAt: createdAt, lastSeenAt: lastSeenAt}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.lastSeenAt }

// SelectedPlaylist returns the id of the playlist last opened in this session.
func (s *Session) SelectedPlaylist() string { return s.selectedPlaylist }

// SelectPlaylist records id as the current playlist and touches the session.
func (s *Session) SelectPlaylist(id string) {
	s.selectedPlaylist = id
	s.Touch()
}

// Touch updates the last-seen timestamp.
func (s *Session) Touch() { s.lastSeenAt = time.Now().UTC() }

// Expired reports whether the session has been idle longer than maxAge. A non-positive maxAge never expires.
func (s *Session) Expired(maxAge time.Duration, now time.Time) bool {
	return maxAge > 0 && now.Sub(s.lastSeenAt) > maxAge
}

// Validate checks that the session has an id and sane timestamps.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session id is required")
	}
	if s.createdAt.IsZero() || s.lastSeenAt.Before(s.createdAt) {
		return fmt.Errorf("session %s has invalid timestamps", s.id)
	}
	return nil
}
