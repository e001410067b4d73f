package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"curator/internal/catalog"
	"curator/internal/guard"
	"curator/internal/shared"
	"curator/internal/spotify"
	"curator/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
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

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, snapshotCommand, planCommand, syncCommand, backupsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// deps bundles the per-command dependency graph: database, platform
// client, and sync engine. Commands that never touch the platform build
// it with connect(ctx, false).
type deps struct {
	db     *sql.DB
	store  *catalog.Store
	client *spotify.Client
	guard  *guard.Guard
	engine *tasks.Engine
}

func (d *deps) close() {
	if d.db != nil {
		d.db.Close()
	}
}

// connect opens the database and, when withPlatform is set, authenticates
// against Spotify before wiring the engine.
func (r *Runner) connect(ctx context.Context, withPlatform bool) (*deps, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	d := &deps{db: db, store: catalog.NewStore(db)}

	var library tasks.Library
	var g *guard.Guard
	if withPlatform {
		authenticator, err := spotify.NewAuthenticator(r.config, r.logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		api, err := authenticator.Authenticate(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		d.client = spotify.NewClient(api, r.logger)
		library = d.client
		g = guard.New(d.client, guard.NewSQLStore(db), r.logger)
		d.guard = g
	}

	if d.client != nil {
		d.engine = tasks.NewEngine(r.config, d.store, library, d.client, g, r.logger)
	} else {
		d.engine = tasks.NewEngine(r.config, d.store, nil, nil, nil, r.logger)
	}
	return d, nil
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
