package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI, opening the given playlist or the favorites list.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	var playlistID string
	if raw := cmd.StringArg("playlist"); raw != "" {
		id, err := services.ExtractPlaylistID(raw)
		if err != nil {
			return err
		}
		playlistID = id
	}

	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := cmd.String("log-file")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)
	defer r.logger.SetOutput(os.Stderr)

	model := ui.NewModel(ctx, r.backend, creds, playlistID)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
