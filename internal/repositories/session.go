package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/shared"
)

// SessionRepository implements [models.Repository] for [models.Session] persistence.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session. The id is issued by the caller (it is the cookie value).
func (r *SessionRepository) Create(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, selected_playlist_id, created_at, last_seen_at) VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, s.ID(), s.SelectedPlaylist(), s.CreatedAt(), s.UpdatedAt()); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by id, returning [shared.ErrSessionNotFound] when it does not exist.
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT id, selected_playlist_id, created_at, last_seen_at
		FROM sessions
		WHERE id = ?
	`

	var (
		sessionID  string
		selected   string
		createdAt  time.Time
		lastSeenAt time.Time
	)

	err := r.db.QueryRow(query, id).Scan(&sessionID, &selected, &createdAt, &lastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return models.RestoreSession(sessionID, selected, createdAt, lastSeenAt), nil
}

// Update persists the selected playlist and last-seen time.
func (r *SessionRepository) Update(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sessions
		SET selected_playlist_id = ?, last_seen_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, s.SelectedPlaylist(), s.UpdatedAt(), s.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return expectAffected(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, s.ID()))
}

// Delete removes a session and any JWT stored for it.
func (r *SessionRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM session_tokens WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}

	result, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := expectAffected(result, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)); err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves sessions. Supported criteria: "idle_since" ([time.Time]) selects sessions not seen since then.
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := "SELECT id, selected_playlist_id, created_at, last_seen_at FROM sessions"
	var args []any

	if since, ok := criteria["idle_since"].(time.Time); ok {
		query += " WHERE last_seen_at < ?"
		args = append(args, since.UTC())
	}
	query += " ORDER BY created_at"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var (
			id, selected          string
			createdAt, lastSeenAt time.Time
		)
		if err := rows.Scan(&id, &selected, &createdAt, &lastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, models.RestoreSession(id, selected, createdAt, lastSeenAt))
	}

	return sessions, rows.Err()
}
