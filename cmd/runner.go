package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/repositories"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/urfave/cli/v3"
)

const provider = "spotify"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	remote      services.Remote
	db          *sql.DB
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Remote and DB replace the Spotify client and the configured database, mainly for tests.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Logger      *log.Logger
	Output      io.Writer
	Remote      services.Remote
	DB          *sql.DB
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		remote:      opts.Remote,
		db:          opts.DB,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playbackCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the config file named by --config, falling back to defaults when it
// does not exist. A config passed to [NewRunner] is kept.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = shared.DefaultConfigPath()
	}
	r.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config = shared.DefaultConfig()
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config

	if err := shared.SetLogLevelString(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}
	return ctx, nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens the configured database on first use and brings its schema up to date.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	c := r.cfg().Database
	db, err := shared.NewDatabase(c.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, c.MaxOpenConns, c.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) tokens() (*repositories.TokenRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewTokenRepository(db), nil
}

func (r *Runner) devices() (*repositories.DeviceRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewDeviceRepository(db), nil
}

func (r *Runner) spotify() (*services.SpotifyService, error) {
	c := r.cfg()
	svc, err := services.NewSpotifyService(c.Credentials.Spotify, services.SpotifyOpts{
		RequestsPerSecond: c.Behavior.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set them in %s)", err, r.configPathOrDefault())
	}
	return svc, nil
}

// connect returns an authenticated remote and the credential's expiry.
func (r *Runner) connect() (services.Remote, time.Time, error) {
	if r.remote != nil {
		return r.remote, time.Time{}, nil
	}

	svc, err := r.spotify()
	if err != nil {
		return nil, time.Time{}, err
	}

	repo, err := r.tokens()
	if err != nil {
		return nil, time.Time{}, err
	}
	stored, err := repo.Load(provider)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := svc.Authenticate(stored.Token); err != nil {
		return nil, time.Time{}, err
	}
	return svc, stored.Token.Expiry, nil
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath != "" {
		return r.configPath
	}
	return shared.DefaultConfigPath()
}

// SetLogger replaces the logger, used when the terminal UI takes over stderr.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
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

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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
