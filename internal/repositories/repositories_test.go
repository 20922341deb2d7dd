package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/oauth2"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		s := models.NewSession(shared.GenerateID())

		if err := repo.Create(s); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		got, err := repo.Get(s.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got.ID() != s.ID() {
			t.Errorf("expected id %s, got %s", s.ID(), got.ID())
		}
		if !got.CreatedAt().Equal(s.CreatedAt()) {
			t.Errorf("expected created_at %v, got %v", s.CreatedAt(), got.CreatedAt())
		}
	})

	t.Run("Create Rejects Invalid Session", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Create(models.NewSession("")); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		s := models.NewSession("dup")
		repo.Create(s)

		if err := repo.Create(s); err == nil {
			t.Error("expected duplicate id to fail")
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Update Selected Playlist", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		s := models.NewSession("s1")
		repo.Create(s)

		s.SelectPlaylist("p1")
		if err := repo.Update(s); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		got, _ := repo.Get("s1")
		if got.SelectedPlaylist() != "p1" {
			t.Errorf("expected selected playlist p1, got %q", got.SelectedPlaylist())
		}

		if err := repo.Update(models.NewSession("ghost")); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Delete Removes Token", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)
		tokens := NewTokenRepository(db)
		repo.Create(models.NewSession("s1"))
		tokens.Save(context.Background(), "s1", &oauth2.Token{AccessToken: "jwt"})

		if err := repo.Delete("s1"); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.Get("s1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("session should be gone, got %v", err)
		}
		if _, err := tokens.Load(context.Background(), "s1"); !errors.Is(err, shared.ErrTokenNotFound) {
			t.Errorf("token should be gone, got %v", err)
		}
		if err := repo.Delete("s1"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound deleting twice, got %v", err)
		}
	})

	t.Run("List Idle Sessions", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		old := time.Now().Add(-48 * time.Hour).UTC()
		repo.Create(models.RestoreSession("old", "", old, old))
		repo.Create(models.NewSession("fresh"))

		all, err := repo.List(nil)
		if err != nil || len(all) != 2 {
			t.Fatalf("expected 2 sessions, got %d (%v)", len(all), err)
		}

		idle, err := repo.List(map[string]any{"idle_since": time.Now().Add(-24 * time.Hour)})
		if err != nil {
			t.Fatalf("failed to list idle sessions: %v", err)
		}
		if len(idle) != 1 || idle[0].ID() != "old" {
			t.Errorf("expected only the old session, got %d", len(idle))
		}
	})
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Save And Load", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

		if err := repo.Save(ctx, "s1", &oauth2.Token{AccessToken: "jwt", Expiry: expiry}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		tok, err := repo.Load(ctx, "s1")
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if tok.AccessToken != "jwt" || tok.TokenType != "Bearer" {
			t.Errorf("unexpected token %+v", tok)
		}
		if !tok.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, tok.Expiry)
		}
		if !tok.Valid() {
			t.Error("loaded token should be valid")
		}
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		repo.Save(ctx, "s1", &oauth2.Token{AccessToken: "first"})
		repo.Save(ctx, "s1", &oauth2.Token{AccessToken: "second"})

		tok, err := repo.Load(ctx, "s1")
		if err != nil || tok.AccessToken != "second" {
			t.Errorf("expected overwritten token, got %+v (%v)", tok, err)
		}
	})

	t.Run("Save Validates Input", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if err := repo.Save(ctx, "", &oauth2.Token{AccessToken: "x"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := repo.Save(ctx, "s1", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Load Missing", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if _, err := repo.Load(ctx, "missing"); !errors.Is(err, shared.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("Expired Tokens", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		now := time.Now()
		repo.Save(ctx, "expired", &oauth2.Token{AccessToken: "a", Expiry: now.Add(-time.Minute)})
		repo.Save(ctx, "live", &oauth2.Token{AccessToken: "b", Expiry: now.Add(time.Hour)})
		repo.Save(ctx, "forever", &oauth2.Token{AccessToken: "c"})

		if _, err := repo.Load(ctx, "expired"); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}

		n, err := repo.PurgeExpired(ctx)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 purged token, got %d", n)
		}
		if _, err := repo.Load(ctx, "expired"); !errors.Is(err, shared.ErrTokenNotFound) {
			t.Errorf("expected purged token to be gone, got %v", err)
		}
		for _, id := range []string{"live", "forever"} {
			if _, err := repo.Load(ctx, id); err != nil {
				t.Errorf("expected %s token to survive, got %v", id, err)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		repo.Save(ctx, "s1", &oauth2.Token{AccessToken: "jwt"})

		if err := repo.Delete(ctx, "s1"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "s1"); err != nil {
			t.Errorf("deleting a missing token should not fail: %v", err)
		}
	})
}
