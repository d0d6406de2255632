package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/repositories"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Gateways are built from the configuration on first use unless supplied in [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	messages   shared.Messages
	search     services.SearchGateway
	download   services.DownloadGateway
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Search     services.SearchGateway
	Download   services.DownloadGateway
	HTTPClient *http.Client
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		messages:   shared.MessagesFor(opts.Config.UI.Locale),
		search:     opts.Search,
		download:   opts.Download,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, downloadCommand, exportCommand, serveCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the file named by --config before any command runs. A missing file means defaults.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.configPath = path
	r.setConfig(config)
	return ctx, nil
}

func (r *Runner) setConfig(config *shared.Config) {
	r.config = config
	r.messages = shared.MessagesFor(config.UI.Locale)
	shared.ConfigureLogger(r.logger, config.Log)
}

// SetLogger replaces the logger used by subsequently built components.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) client() *http.Client {
	if r.httpClient == nil {
		r.httpClient = services.NewHTTPClient(context.Background(), r.config.Backend)
	}
	return r.httpClient
}

func (r *Runner) gateways() (services.SearchGateway, services.DownloadGateway) {
	if r.search != nil && r.download != nil {
		return r.search, r.download
	}

	api := services.NewAPIService(r.config.Backend.URL, r.client())
	if r.search == nil {
		r.search = services.NewSearchGateway(api, r.config.Backend.SearchPath, shared.WithLogger(r.logger, "gateway", "search"))
	}
	if r.download == nil {
		r.download = services.NewDownloadGateway(api, r.config.Backend.DownloadPath, shared.WithLogger(r.logger, "gateway", "download"))
	}
	return r.search, r.download
}

func (r *Runner) validator() *tasks.LinkValidator {
	return tasks.NewLinkValidator(r.config.Backend.Provider)
}

func (r *Runner) searchOrchestrator() *tasks.SearchOrchestrator {
	search, _ := r.gateways()
	return tasks.NewSearchOrchestrator(r.validator(), search, r.messages, r.logger)
}

// session builds a session saving archives with saver and recording them in history, which may be nil.
func (r *Runner) session(saver tasks.Saver, history tasks.HistoryRecorder) *tasks.Session {
	_, download := r.gateways()
	return tasks.NewSession(
		r.searchOrchestrator(),
		tasks.NewDownloadOrchestrator(download, saver, history, r.messages, r.logger),
		r.logger,
	)
}

// openDatabase opens the history database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// history opens the download history for recording. Failures are logged and yield a nil recorder.
func (r *Runner) history() (tasks.HistoryRecorder, func()) {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("download history unavailable", "path", r.config.Database.Path, "error", err)
		return nil, func() {}
	}
	return repositories.NewDownloadRepository(db), func() { db.Close() }
}

// printProgress writes updates from progress until it is closed; the returned channel closes after the last one.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.Validate:
			case tasks.Done:
				if update.Err != nil {
					r.writePlain("✗ %s\n", update.Err)
				}
			case tasks.Export:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return done
}

// run calls fn with a fresh progress channel and waits for all of its updates to be printed.
func (r *Runner) run(fn func(progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 50)
	printed := r.printProgress(progress)
	err := fn(progress)
	close(progress)
	<-printed
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

// requireArg returns the named argument or [shared.ErrMissingArgument].
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}
