// Package providers contains dependency injection providers for the bookshelf server.
package providers

import (
	"io"
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/logger"
)

// ProvideConfig provides the application configuration. Command-line values
// arrive as a config.Options value registered on the injector.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts, err := do.Invoke[config.Options](i)
	if err != nil {
		opts = config.Options{}
	}
	return config.Load(opts)
}

// LogWriter names an optional io.Writer value that replaces stdout as the
// log destination, e.g. stderr for commands that print JSON.
const LogWriter = "log.writer"

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	w, err := do.InvokeNamed[io.Writer](i, LogWriter)
	if err != nil {
		w = os.Stdout
	}

	log := logger.New(logger.Config{
		Writer:      w,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting bookshelf server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"books_path", cfg.Data.BooksPath,
		"keywords_path", cfg.Data.KeywordsPath,
	)

	return log, nil
}
