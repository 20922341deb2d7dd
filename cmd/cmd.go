// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func sortFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "Column to sort by",
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Sort direction (asc or desc)",
			Value:   "asc",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}
}

// serveCommand runs the HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and API proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.DurationFlag{
				Name:  "purge-interval",
				Usage: "How often expired tokens and idle sessions are removed",
				Value: 15 * time.Minute,
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// loginCommand authenticates the CLI through the backend's browser login.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in through the browser and save the backend JWT",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Local callback port",
				Value: 8765,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the login URL instead of opening a browser",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "End the backend session and forget the saved JWT",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged in Spotify user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.WhoAmI,
	}
}

// playlistCommand handles playlist lookups by URL or ID.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations (accepts a Spotify URL, URI or ID)",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show playlist metadata",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:      "tracks",
				Usage:     "List playlist tracks as a sortable table",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags:     sortFlags(),
				Action:    r.PlaylistTracks,
			},
			{
				Name:      "features",
				Usage:     "Show audio features for every track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistFeatures,
			},
			{
				Name:      "chart",
				Usage:     "Show the artist or album distribution and the feature averages",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "by",
						Usage: "Distribution dimension (artist or album)",
						Value: "artist",
					},
					&cli.IntFlag{
						Name:  "width",
						Usage: "Bar width",
						Value: 30,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistChart,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist to csv, markdown, text, yaml or json",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (a directory for markdown); stdout when empty",
					},
					&cli.BoolFlag{
						Name:  "features",
						Usage: "Include audio features",
						Value: true,
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Track operations",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a track and its audio features",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TrackShow,
			},
		},
	}
}

// favoritesCommand manages favorite playlists.
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Favorite playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorite playlists",
				Flags:  sortFlags(),
				Action: r.FavoritesList,
			},
			{
				Name:      "add",
				Usage:     "Add a playlist to favorites",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a playlist from favorites",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.FavoritesRemove,
			},
			{
				Name:  "export",
				Usage: "Export every favorite playlist into a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, yaml, json)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: playlist_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Backend fetches per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "features",
						Usage: "Include audio features",
						Value: true,
					},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the playlist backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:      "delete",
				Usage:     "Direct DELETE to the backend",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.APIDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive playlist browser",
		Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/playlist-viewer-tui.log",
			},
		},
		Action: r.TUI,
	}
}
