package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/session"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/viacep"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const serviceName = "storefront-api"

// backend is the catalog data provider selected by configuration.
type backend struct {
	products product.AdminRepository
	coupons  coupon.Repository
	orders   order.Repository
	// ping is nil for the in-memory catalog.
	ping  health.CheckFunc
	close func()
}

// openBackend connects to PostgreSQL when a database URL is configured and
// falls back to the in-memory catalog otherwise.
func openBackend(ctx context.Context, cfg *Config) (*backend, error) {
	if cfg.DatabaseURL == "" {
		catalog := memory.NewSeeded(memory.WithLatency(cfg.latencyScale()))
		return &backend{
			products: catalog,
			coupons:  catalog,
			orders:   catalog.Orders(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &backend{
		products: postgres.NewProductRepository(pool),
		coupons:  postgres.NewCouponRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		ping:     health.PingCheck(pool.Ping),
		close:    pool.Close,
	}, nil
}

// newRouter wires the domain services and returns the API router with the
// health probes mounted.
func newRouter(
	ctx context.Context,
	cfg *Config,
	be *backend,
	healthSvc *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (http.Handler, error) {
	products := storage.Deduplicate(be.products)
	coupons := coupon.NewRepoValidator(be.coupons)
	lookup := viacep.New(cfg.AddressLookup.BaseURL,
		viacep.WithTimeout(cfg.AddressLookup.Timeout),
		viacep.WithTelemetry(tp, mp),
	)

	orders, err := order.NewService(be.orders, order.RetryConfig{
		MaxAttempts:     cfg.Order.SubmitAttempts,
		InitialInterval: cfg.Order.InitialInterval,
		MaxInterval:     cfg.Order.MaxInterval,
	}, tp, mp)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	sessions := session.NewRegistry(func() *checkout.Flow {
		return checkout.NewFlow(coupons, lookup)
	}, cfg.Session.TTL)
	sessions.StartCleanup(ctx, cfg.Session.CleanupInterval)

	h := handler.New(handler.Config{
		FeaturedCount: cfg.FeaturedCount,
		SessionTTL:    cfg.Session.TTL,
	}, products, orders, sessions)

	r := h.Router()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	return r, nil
}

// middleware returns the server middleware chain, outermost first.
func middleware(ctx context.Context, cfg *Config, tp trace.TracerProvider, mp metric.MeterProvider) []httpmiddleware.Middleware {
	return []httpmiddleware.Middleware{
		handler.RouteContext(),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", handler.SessionHeader, httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{handler.SessionHeader, httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   isProbe,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument(serviceName, tp, mp),
		httpmiddleware.LogRequests(handler.RoutePattern),
		httpmiddleware.Labeler(handler.RoutePattern),
	}
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
	)
	ctx = zctx.Base(ctx, lg)

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	healthSvc := health.New()
	if be.ping != nil {
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, be.ping)
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	tp, mp := m.TracerProvider(), m.MeterProvider()
	router, err := newRouter(ctx, cfg, be, healthSvc, tp, mp)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           httpmiddleware.Wrap(router, middleware(ctx, cfg, tp, mp)...),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
