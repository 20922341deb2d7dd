package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Backend.BaseURL != "http://localhost:8000" {
			t.Errorf("expected backend URL http://localhost:8000, got %s", config.Backend.BaseURL)
		}
		if config.Backend.Timeout.Duration != 15*time.Second {
			t.Errorf("expected backend timeout 15s, got %s", config.Backend.Timeout)
		}
		if config.Session.CookieName != "sessionId" || config.Session.JWTCookie != "JWT" {
			t.Errorf("unexpected cookie names %q/%q", config.Session.CookieName, config.Session.JWTCookie)
		}
		if config.Session.MaxAge.Duration != 168*time.Hour {
			t.Errorf("expected session max age 168h, got %s", config.Session.MaxAge)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("unexpected addr %s", config.Server.Addr())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("Partial File Keeps Defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			content := "[backend]\nbase_url = \"https://api.example.com\"\ntimeout = \"2s\"\n"
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if config.Backend.BaseURL != "https://api.example.com" {
				t.Errorf("expected overridden backend URL, got %s", config.Backend.BaseURL)
			}
			if config.Backend.Timeout.Duration != 2*time.Second {
				t.Errorf("expected 2s timeout, got %s", config.Backend.Timeout)
			}
			if config.Server.Port != 3000 {
				t.Errorf("expected default port to survive, got %d", config.Server.Port)
			}
		})

		t.Run("Invalid Duration", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[backend]\ntimeout = \"soon\"\n"), 0644)

			if _, err := LoadConfig(configPath); err == nil {
				t.Error("expected error for invalid duration")
			}
		})

		t.Run("Invalid Backend URL", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[backend]\nbase_url = \"not a url\"\n"), 0644)

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Invalid Store", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[session]\nstore = \"redis\"\n"), 0644)

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Negative Max Age", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[session]\nmax_age = \"-1h\"\n"), 0644)

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Zero Max Age", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[session]\nmax_age = \"0s\"\n"), 0644)

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("zero max_age should be accepted: %v", err)
			}
			if config.Session.MaxAge.Duration != 0 {
				t.Errorf("expected zero max age, got %s", config.Session.MaxAge)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})
	})

	t.Run("LoadOrDefault", func(t *testing.T) {
		config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected defaults for missing file, got %v", err)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected default port, got %d", config.Server.Port)
		}
	})
}
