package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/repositories"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/urfave/cli/v3"
)

// cliSessionID is the session id the command line stores its JWT under.
const cliSessionID = "cli"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	backend    *services.BackendClient
	tokens     session.TokenStore
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    *services.BackendClient
	Tokens     session.TokenStore // defaults to the sqlite token table, opened on first use
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Backend == nil {
		opts.Backend = services.NewBackendClientFromConfig(opts.Config)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, loginCommand, logoutCommand, whoamiCommand,
		playlistCommand, trackCommand, favoritesCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before reloads configuration when --config names a file and applies --log-level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" && path != r.configPath {
		config, err := shared.LoadOrDefault(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
		r.backend = services.NewBackendClientFromConfig(config)
	}

	level := r.config.Server.LogLevel
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// Close releases the database when one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens and migrates the sqlite database once per process.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}

	r.db = db
	return db, nil
}

func (r *Runner) tokenStore() (session.TokenStore, error) {
	if r.tokens != nil {
		return r.tokens, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.tokens = repositories.NewTokenRepository(db)
	return r.tokens, nil
}

// credentials resolves the JWT for backend calls: --token wins over the one saved by login.
func (r *Runner) credentials(ctx context.Context, cmd *cli.Command) (services.Credentials, error) {
	creds := services.Credentials{SessionID: cliSessionID}
	if token := cmd.String("token"); token != "" {
		creds.JWT = token
		return creds, nil
	}

	tokens, err := r.tokenStore()
	if err != nil {
		return creds, err
	}

	token, err := tokens.Load(ctx, cliSessionID)
	switch {
	case errors.Is(err, shared.ErrTokenNotFound):
		r.logger.Debug("no saved token, calling backend anonymously")
		return creds, nil
	case errors.Is(err, shared.ErrTokenExpired):
		r.logger.Warn("saved token expired, run 'playlist-viewer login'")
		return creds, nil
	case err != nil:
		return creds, err
	}

	creds.JWT = token.AccessToken
	return creds, nil
}

// requireAuth is credentials for commands the backend rejects anonymously.
func (r *Runner) requireAuth(ctx context.Context, cmd *cli.Command) (services.Credentials, error) {
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return creds, err
	}
	if !creds.Authenticated() {
		return creds, fmt.Errorf("%w: run 'playlist-viewer login' or pass --token", shared.ErrNotAuthenticated)
	}
	return creds, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
