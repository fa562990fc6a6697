package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"navigation-simulator/internal/camera"
	"navigation-simulator/internal/config"
	"navigation-simulator/internal/db"
	"navigation-simulator/internal/directions"
	"navigation-simulator/internal/handler"
	"navigation-simulator/internal/logger"
	"navigation-simulator/internal/metrics"
	"navigation-simulator/internal/navigator"
	"navigation-simulator/internal/player"
	"navigation-simulator/internal/publisher"
)

const serviceName = "navigation-simulator"

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatal("camera policy", zap.String("file", cfg.PolicyFile), zap.Error(err))
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	mcol := metrics.NewCollector(cfg.FrameRate, policy.DurationMultiplier)
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = mcol.Serve(cfg.MetricsAddr, log)
	}

	// Route and session storage
	var store *db.Store
	var sqlDB *sql.DB
	if cfg.Persistence() {
		sqlDB, store = openStore(ctx, cfg.DatabaseURL, log)
		defer sqlDB.Close()
	} else {
		log.Info("no database configured, routes and sessions are not stored")
	}

	// Frame sink: NATS when configured, the log otherwise
	var pub publisher.Publisher
	if cfg.NATSURL != "" {
		np, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol), log)
		if err != nil {
			log.Fatal("nats connect", zap.String("url", cfg.NATSURL), zap.Error(err))
		}
		defer np.Close()
		pub = np
	} else {
		log.Info("no NATS_URL, frames are logged at debug level")
		pub = publisher.NewLogPublisher(log)
	}
	sink := publisher.NewSink(pub, cfg.NATSSubjectPrefix, camera.Pose{Zoom: policy.Routing.Zoom, Pitch: policy.Routing.Pitch}, log)

	p := player.New(sink, sink, policy,
		player.WithClock(func() player.FrameClock { return player.NewTickerClock(cfg.FrameRate) }),
		player.WithMetrics(mcol),
		player.WithLogger(log),
	)
	sink.Bind(func() string { return p.Session().String() })

	var sessions navigator.SessionStore
	var routes handler.RouteStore
	if store != nil {
		sessions, routes = store, store
	}
	nav := navigator.New(ctx, p, sessions, log)

	var fetcher handler.RouteFetcher
	if err := cfg.RequireDirections(); err != nil {
		log.Info("directions disabled", zap.Error(err))
	} else {
		fetcher = directions.NewClient(cfg.DirectionsURL, cfg.MapboxToken,
			directions.WithMetrics(mcol),
			directions.WithLogger(log),
		)
	}

	if cfg.RouteFile != "" {
		playRouteFile(nav, cfg.RouteFile, log)
	}

	// Control API
	router := handler.NewRouter(log)
	var ping func(context.Context) error
	if sqlDB != nil {
		ping = func(ctx context.Context) error { return db.Ping(ctx, sqlDB) }
	}
	handler.NewHealthHandler(serviceName, ping).RegisterRoutes(router)
	handler.NewPlaybackHandler(nav, routes, fetcher, log).RegisterRoutes(&router.RouterGroup)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			cancel()
		}
	}()

	// Block until context cancelled
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	nav.Wait()
	log.Info("shutdown complete")
}

func openStore(ctx context.Context, dsn string, log *zap.Logger) (*sql.DB, *db.Store) {
	if err := db.EnsureDatabase(ctx, dsn); err != nil {
		log.Fatal("ensure database", zap.Error(err))
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if err := db.Ping(ctx, sqlDB); err != nil {
		log.Fatal("db ping", zap.Error(err))
	}
	store := db.NewStore(sqlDB)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}
	return sqlDB, store
}

// playRouteFile starts a saved directions response. Failures are logged and the
// service keeps running.
func playRouteFile(nav *navigator.Navigator, path string, log *zap.Logger) {
	body, err := os.ReadFile(path)
	if err != nil {
		log.Error("read route file", zap.String("file", path), zap.Error(err))
		return
	}
	rt, err := directions.Decode(body)
	if err != nil {
		log.Error("decode route file", zap.String("file", path), zap.Error(err))
		return
	}
	session, err := nav.Launch(rt, 0)
	if err != nil {
		log.Error("play route file", zap.String("file", path), zap.Error(err))
		return
	}
	log.Info("playing route file", zap.String("file", path), zap.String("session", session.String()))
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
