package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookshelf/internal/api"
	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/logger"
	"github.com/listenupapp/bookshelf/internal/metrics"
	"github.com/listenupapp/bookshelf/internal/ratelimit"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/view"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel      context.CancelFunc
	unsubscribe func()
	grace       time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.unsubscribe()
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), h.grace)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager and subscribes
// its publisher to the render stage of the dashboard.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	dashboard := do.MustInvoke[*DashboardHandle](i)
	views := do.MustInvoke[*view.Set](i)

	manager := sse.NewManager(log.Component("sse"), cfg.SSE.Heartbeat)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	unsubscribe := dashboard.Subscribe(crossfilter.StageRender, "sse", sse.NewPublisher(manager, views))

	log.Info("SSE manager started", "heartbeat", cfg.SSE.Heartbeat)

	return &SSEManagerHandle{
		Manager:     manager,
		cancel:      cancel,
		unsubscribe: unsubscribe,
		grace:       cfg.Server.ShutdownTimeout,
	}, nil
}

// RateLimiterHandle wraps the keyed limiter with Shutdownable. Limiter is
// nil when rate limiting is disabled.
type RateLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.Limiter != nil {
		h.Limiter.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-client limiter for filter mutations.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled by configuration")
		return &RateLimiterHandle{}, nil
	}

	return &RateLimiterHandle{
		Limiter: ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	errc  chan error
	grace time.Duration
}

// Err reports a listen failure. It receives nothing after a clean shutdown.
func (h *HTTPServerHandle) Err() <-chan error {
	return h.errc
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.grace)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	dashboard := do.MustInvoke[*DashboardHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	index := do.MustInvoke[*SearchIndexHandle](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, dashboard.Dashboard, log.Component("sse"))

	handler := api.NewServer(dashboard.Dashboard, sseHandler, api.Options{
		Metrics:        m,
		Limiter:        limiter.Limiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Search:         index.Index,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Open streams never finish on their own; close them so Shutdown can drain.
	srv.RegisterOnShutdown(sseHandle.cancel)

	errc := make(chan error, 1)

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			errc <- err
		}
	}()

	return &HTTPServerHandle{Server: srv, errc: errc, grace: cfg.Server.ShutdownTimeout}, nil
}
