// Package di provides dependency injection configuration for the bookshelf server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/dataset"
	"github.com/listenupapp/bookshelf/internal/di/providers"
	"github.com/listenupapp/bookshelf/internal/logger"
	"github.com/listenupapp/bookshelf/internal/metrics"
	"github.com/listenupapp/bookshelf/internal/view"
)

// NewContainer creates and configures the DI container with all providers.
// opts carries command-line overrides into the configuration.
func NewContainer(opts config.Options) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, opts)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Data and engine
	do.Provide(injector, providers.ProvideSchema)
	do.Provide(injector, providers.ProvideDataset)
	do.Provide(injector, providers.ProvideEngine)
	do.Provide(injector, providers.ProvideViews)
	do.Provide(injector, providers.ProvideDashboard)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Server
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the HTTP server is listening
// in the background. The first error aborts the boot.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	// Dataset failures are the common case; report them instead of panicking.
	if _, err := do.Invoke[*crossfilter.Schema](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*dataset.Dataset](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*crossfilter.Engine](injector)
	_ = do.MustInvoke[*view.Set](injector)
	_ = do.MustInvoke[*providers.DashboardHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
