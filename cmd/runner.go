package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/soundsift/soundsift/internal/cleanup"
	"github.com/soundsift/soundsift/internal/repositories"
	"github.com/soundsift/soundsift/internal/services"
	"github.com/soundsift/soundsift/internal/shared"
	"github.com/soundsift/soundsift/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	proxy      *services.ProxyClient
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	workers    int
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Proxy      *services.ProxyClient
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Workers    int
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		proxy:      opts.Proxy,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		workers:    opts.Workers,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, compareCommand, dedupeCommand, planCommand, applyCommand, rollbackCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// sourceFor resolves the catalog source for a command: a JSON snapshot file
// when --library is given, otherwise the configured proxy.
func (r *Runner) sourceFor(cmd *cli.Command, libraryFlag, playlistsFlag string) (services.CatalogSource, error) {
	if path := cmd.String(libraryFlag); path != "" {
		playlists := ""
		if playlistsFlag != "" {
			playlists = cmd.String(playlistsFlag)
		}
		return services.NewFileSource(path, playlists), nil
	}
	if r.proxy != nil {
		return r.proxy, nil
	}
	return nil, fmt.Errorf("%w: no --%s file and no proxy configured", shared.ErrMissingConfig, libraryFlag)
}

// engineFor builds a sweep engine around a source catalog, wiring the
// snapshot cache and the proxy-backed executor when available.
func (r *Runner) engineFor(source services.CatalogSource, target services.CatalogSource) (*tasks.CatalogEngine, func()) {
	opts := tasks.EngineOpts{
		Target:  target,
		Logger:  shared.WithLogger(r.logger, "component", "engine"),
		Workers: r.workers,
	}

	closer := func() {}
	if db, err := r.openCache(); err == nil {
		opts.Cache = repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
		closer = func() { db.Close() }
	} else {
		r.logger.Debug("snapshot cache unavailable", "error", err)
	}

	if r.proxy != nil {
		opts.Executor = cleanup.NewExecutor(r.proxy, r.proxy, cleanup.ExecutorOpts{
			Limiter:    rate.NewLimiter(rate.Limit(r.config.Proxy.RateLimit), 1),
			MaxRetries: r.config.Proxy.MaxRetries,
			Logger:     shared.WithLogger(r.logger, "component", "executor"),
		})
	}

	return tasks.NewCatalogEngine(source, opts), closer
}

// openCache opens the snapshot cache database and ensures the schema exists.
func (r *Runner) openCache() (*sql.DB, error) {
	if r.config.Database.Path == "" {
		return nil, fmt.Errorf("%w: no database path configured", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// drainProgress logs progress updates until the channel is closed. Run it in
// a goroutine and close the channel when the operation returns.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		r.logger.Info(update.Message, "phase", update.Phase.String())
	}
}

func (r *Runner) withProgress(run func(progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	err := run(progress)
	close(progress)
	<-done
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
