package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/di"
	"github.com/listenupapp/bookshelf/internal/di/providers"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/logger"
)

// globalFlags are shared by every subcommand. Each maps onto the
// environment variable of the same setting.
type globalFlags struct {
	envFile      string
	environment  string
	logLevel     string
	booksPath    string
	keywordsPath string
	eventsPath   string
	schemaPath   string
	topN         string
}

func (g *globalFlags) options() config.Options {
	return config.Options{
		EnvFile: g.envFile,
		Overrides: map[string]string{
			"ENV":                g.environment,
			"LOG_LEVEL":          g.logLevel,
			"DATA_BOOKS_PATH":    g.booksPath,
			"DATA_KEYWORDS_PATH": g.keywordsPath,
			"DATA_EVENTS_PATH":   g.eventsPath,
			"DATA_SCHEMA_PATH":   g.schemaPath,
			"VIEWS_TOP_N":        g.topN,
		},
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "bookshelf",
		Short: "Linked-view dashboard over a sci-fi book collection",
		Long: `bookshelf loads the book master file, the book keywords and the space
exploration timeline, and serves a cross-filtered dashboard over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file to read before the environment")
	pf.StringVar(&g.environment, "env", "", "environment: development, staging or production (ENV)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error (LOG_LEVEL)")
	pf.StringVar(&g.booksPath, "books", "", "book master CSV (DATA_BOOKS_PATH)")
	pf.StringVar(&g.keywordsPath, "keywords", "", "book keywords CSV (DATA_KEYWORDS_PATH)")
	pf.StringVar(&g.eventsPath, "events", "", "space exploration events TSV (DATA_EVENTS_PATH)")
	pf.StringVar(&g.schemaPath, "schema", "", "YAML dimension schema (DATA_SCHEMA_PATH)")
	pf.StringVar(&g.topN, "top-n", "", "treemap size (VIEWS_TOP_N)")

	root.AddCommand(newServeCmd(g), newSummaryCmd(g))
	return root
}

type serveFlags struct {
	port      string
	rateLimit string
	cors      string
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := g.options()
			opts.Overrides["SERVER_PORT"] = f.port
			opts.Overrides["RATE_LIMIT_ENABLED"] = f.rateLimit
			opts.Overrides["CORS_ORIGINS"] = f.cors
			return serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&f.port, "port", "", "listen port (SERVER_PORT)")
	cmd.Flags().StringVar(&f.rateLimit, "rate-limit", "", "limit filter mutations per client: true or false (RATE_LIMIT_ENABLED)")
	cmd.Flags().StringVar(&f.cors, "cors-origins", "", "comma-separated allowed origins (CORS_ORIGINS)")
	return cmd
}

func serve(ctx context.Context, opts config.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create DI container
	injector := di.NewContainer(opts)

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		_ = injector.Shutdown()
		return bootstrapError(err)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	srv := do.MustInvoke[*providers.HTTPServerHandle](injector)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server gracefully...")
	case serveErr = <-srv.Err():
	}

	// The DI container handles shutdown order automatically
	if report := injector.Shutdown(); report != nil {
		log.Error("Shutdown error", "error", report)
	}

	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	log.Info("Shelves dusted, lights off")
	return nil
}

// bootstrapError points at the dataset when a cell failed to parse, since
// that is fixed by editing the file rather than the configuration.
func bootstrapError(err error) error {
	if domainerrors.Is(err, domainerrors.ErrMalformedAttribute) {
		return fmt.Errorf("dataset has a malformed cell: %w", err)
	}
	return fmt.Errorf("bootstrap server: %w", err)
}
