package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository stores backend JWTs keyed by session id.
type TokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// Save upserts the token for sessionID.
func (r *TokenRepository) Save(ctx context.Context, sessionID string, token *oauth2.Token) error {
	if sessionID == "" || token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: session id and access token are required", shared.ErrInvalidInput)
	}

	var expires sql.NullTime
	if !token.Expiry.IsZero() {
		expires = sql.NullTime{Time: token.Expiry.UTC(), Valid: true}
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	query := `
		INSERT INTO session_tokens (session_id, access_token, token_type, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID, token.AccessToken, tokenType, expires, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Load returns the token for sessionID.
//
// Missing tokens return [shared.ErrTokenNotFound]; expired ones return [shared.ErrTokenExpired].
func (r *TokenRepository) Load(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	var (
		access, tokenType string
		expires           sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT access_token, token_type, expires_at FROM session_tokens WHERE session_id = ?", sessionID,
	).Scan(&access, &tokenType, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	token := &oauth2.Token{AccessToken: access, TokenType: tokenType}
	if expires.Valid {
		token.Expiry = expires.Time
		if !token.Expiry.After(r.now()) {
			return nil, shared.ErrTokenExpired
		}
	}

	return token, nil
}

// Delete removes the token for sessionID. Deleting a missing token is not an error.
func (r *TokenRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_tokens WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// PurgeExpired removes tokens that expired before now and reports how many were removed.
func (r *TokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE expires_at IS NOT NULL AND expires_at <= ?", r.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return result.RowsAffected()
}
