package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/oauth2"
)

// MemoryStore is an in-process [Store], used when session.store is "memory" and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (m *MemoryStore) Create(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; ok {
		return fmt.Errorf("session %s already exists", s.ID())
	}
	m.sessions[s.ID()] = copySession(s)
	return nil
}

func (m *MemoryStore) Get(id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return copySession(s), nil
}

func (m *MemoryStore) Update(s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, s.ID())
	}
	m.sessions[s.ID()] = copySession(s)
	return nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func copySession(s *models.Session) *models.Session {
	return models.RestoreSession(s.ID(), s.SelectedPlaylist(), s.CreatedAt(), s.UpdatedAt())
}

// MemoryTokenStore is an in-process [TokenStore].
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]oauth2.Token
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]oauth2.Token), now: time.Now}
}

func (m *MemoryTokenStore) Save(_ context.Context, sessionID string, token *oauth2.Token) error {
	if sessionID == "" || token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: session id and access token are required", shared.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sessionID] = *token
	return nil
}

func (m *MemoryTokenStore) Load(_ context.Context, sessionID string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[sessionID]
	if !ok {
		return nil, shared.ErrTokenNotFound
	}
	if !tok.Expiry.IsZero() && !tok.Expiry.After(m.now()) {
		delete(m.tokens, sessionID)
		return nil, shared.ErrTokenExpired
	}
	return &tok, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}
