package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/dataset"
	"github.com/listenupapp/bookshelf/internal/logger"
	"github.com/listenupapp/bookshelf/internal/metrics"
	"github.com/listenupapp/bookshelf/internal/search"
	"github.com/listenupapp/bookshelf/internal/service"
	"github.com/listenupapp/bookshelf/internal/view"
)

// ProvideMetrics provides the Prometheus collectors on a private registry
// that also carries the Go runtime and process collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), nil
}

// ProvideSchema provides the dimension schema: the built-in one, or the
// YAML file named by DATA_SCHEMA_PATH.
func ProvideSchema(i do.Injector) (*crossfilter.Schema, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Data.SchemaPath == "" {
		return crossfilter.DefaultSchema(), nil
	}

	f, err := os.Open(cfg.Data.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	schema, err := crossfilter.LoadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", cfg.Data.SchemaPath, err)
	}
	return schema, nil
}

// ProvideDataset loads the source files.
func ProvideDataset(i do.Injector) (*dataset.Dataset, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return dataset.Load(context.Background(), dataset.Paths{
		Books:    cfg.Data.BooksPath,
		Keywords: cfg.Data.KeywordsPath,
		Events:   cfg.Data.EventsPath,
	}, log.Component("dataset"))
}

// ProvideEngine provides the crossfilter engine over the loaded dataset.
func ProvideEngine(i do.Injector) (*crossfilter.Engine, error) {
	log := do.MustInvoke[*logger.Logger](i)
	data := do.MustInvoke[*dataset.Dataset](i)
	schema := do.MustInvoke[*crossfilter.Schema](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	engine := crossfilter.New(
		crossfilter.NewStore(data.Books, data.Events),
		crossfilter.WithSchema(schema),
		crossfilter.WithLogger(log.Component("crossfilter")),
		crossfilter.WithRecorder(m),
	)

	log.Info("Crossfilter engine ready",
		slog.Int("books", engine.Store().Len()),
		slog.Int("dimensions", len(schema.Dimensions())))

	return engine, nil
}

// SearchIndexHandle wraps the search index with Shutdownable.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex builds the in-memory full-text index over the dataset.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	data := do.MustInvoke[*dataset.Dataset](i)

	idx, err := search.Build(data.Books, log.Component("search"))
	if err != nil {
		return nil, err
	}
	return &SearchIndexHandle{Index: idx}, nil
}

// ProvideViews provides the dashboard panels.
func ProvideViews(i do.Injector) (*view.Set, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	return view.NewSet(cfg.Views.TopN, log.Component("view")), nil
}

// DashboardHandle wraps the dashboard service with Shutdownable.
type DashboardHandle struct {
	*service.Dashboard
}

// Shutdown implements do.Shutdownable. It detaches the panels and closes
// the engine.
func (h *DashboardHandle) Shutdown() error {
	return h.Close()
}

// ProvideDashboard provides the dashboard service and attaches the panels.
func ProvideDashboard(i do.Injector) (*DashboardHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	engine := do.MustInvoke[*crossfilter.Engine](i)
	views := do.MustInvoke[*view.Set](i)
	return &DashboardHandle{
		Dashboard: service.NewDashboard(engine, views, log.Component("dashboard")),
	}, nil
}
