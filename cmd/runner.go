package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/auth"
	"github.com/desertthunder/ytlinks/internal/repositories"
	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services that are not injected are built on first use from the loaded config, so commands
// only fail on the credentials they actually need.
type Runner struct {
	config     *shared.Config
	loadConfig bool
	resolver   services.TrackResolver
	searcher   services.VideoSearcher
	links      *repositories.LinkRepository
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // when nil, loaded from --config and --env before each command
	Resolver   services.TrackResolver
	Searcher   services.VideoSearcher
	Links      *repositories.LinkRepository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loadConfig := opts.Config == nil
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
		loadConfig: loadConfig,
		resolver:   opts.Resolver,
		searcher:   opts.Searcher,
		links:      opts.Links,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		convertCommand, resolveCommand, searchCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags: log level, config file and env file.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if level := cmd.String("log-level"); level != "" {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	}

	if !r.loadConfig {
		return ctx, nil
	}

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", configPath)
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, configPath)
	}

	if err := shared.LoadEnv(r.config, cmd.String("env")); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// After releases resources opened by commands.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.links = nil
	return err
}

// SetLogger replaces the logger used by the runner and services built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) client() *http.Client {
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: r.config.Convert.Timeout()}
	}
	return r.httpClient
}

// trackResolver returns the injected resolver or builds a Spotify resolver backed by a token manager.
func (r *Runner) trackResolver() (services.TrackResolver, error) {
	if r.resolver != nil {
		return r.resolver, nil
	}
	if err := r.config.ValidateSpotify(); err != nil {
		return nil, err
	}

	spotify := r.config.Credentials.Spotify
	manager, err := auth.NewManager(auth.Credentials{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		Encoded:      spotify.ClientCreds,
	}, auth.ManagerOpts{TokenURL: spotify.TokenURL, HTTPClient: r.client(), Logger: r.logger})
	if err != nil {
		return nil, err
	}

	r.resolver = services.NewSpotifyResolver(manager, services.SpotifyResolverOpts{
		BaseURL:    spotify.APIURL,
		HTTPClient: r.client(),
		Logger:     r.logger,
	})
	return r.resolver, nil
}

// videoSearcher returns the injected searcher or builds the configured backend.
func (r *Runner) videoSearcher() (services.VideoSearcher, error) {
	if r.searcher != nil {
		return r.searcher, nil
	}
	if err := r.config.ValidateYouTube(); err != nil {
		return nil, err
	}

	youtube := r.config.Credentials.YouTube
	switch youtube.Backend {
	case shared.BackendProxy:
		r.searcher = services.NewProxySearcher(youtube.HeadersPath, services.SearchOpts{
			BaseURL:    youtube.ProxyURL,
			HTTPClient: r.client(),
			Logger:     r.logger,
		})
	default:
		r.searcher = services.NewYouTubeSearcher(youtube.APIKey, services.SearchOpts{
			BaseURL:    youtube.APIURL,
			HTTPClient: r.client(),
			Logger:     r.logger,
		})
	}
	return r.searcher, nil
}

// linkRepository opens the configured database on first use.
func (r *Runner) linkRepository() (*repositories.LinkRepository, error) {
	if r.links != nil {
		return r.links, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.links = repositories.NewLinkRepository(db)
	return r.links, nil
}

// convertEngine wires the resolver, searcher and (optionally) the link cache into an engine.
//
// A cache that cannot be opened is logged and skipped.
func (r *Runner) convertEngine(useCache bool) (*tasks.ConvertEngine, error) {
	resolver, rerr := r.trackResolver()
	searcher, serr := r.videoSearcher()
	if err := errors.Join(rerr, serr); err != nil {
		return nil, err
	}

	opts := tasks.EngineOpts{RateLimit: r.config.Convert.RateLimit, Logger: r.logger}
	if useCache && r.config.Convert.Cache {
		if links, err := r.linkRepository(); err != nil {
			r.logger.Warn("link cache unavailable, continuing without it", "error", err)
		} else {
			opts.Cache = repositories.NewLinkCacheAdapter(links)
		}
	}

	return tasks.NewConvertEngine(resolver, searcher, opts), nil
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
