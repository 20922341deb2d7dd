package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/urfave/cli/v3"
)

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist-viewer",
		Usage:   "Browse Spotify playlists, tracks and audio features through the playlist backend",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Backend JWT; overrides the token saved by login",
				Sources: cli.EnvVars("PLAYLIST_VIEWER_TOKEN"),
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.LoadOrDefault("config.toml")
	if err != nil {
		logger.Warn("failed to load config.toml, using defaults", "error", err)
		config = shared.DefaultConfig()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	err = newApp(runner).Run(context.Background(), os.Args)
	runner.Close()
	if err == nil {
		return
	}

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		logger.Error(apiErr.Message, "status", apiErr.Status, "code", apiErr.Code)
		os.Exit(1)
	}
	logger.Fatalf("application error: %v", err)
}
