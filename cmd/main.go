package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/tianji/internal/adapters/conversation"
	"github.com/okian/tianji/internal/adapters/http/api"
	"github.com/okian/tianji/internal/adapters/http/site"
	"github.com/okian/tianji/internal/adapters/http/swagger"
	"github.com/okian/tianji/internal/adapters/oracle"
	app "github.com/okian/tianji/internal/app"
	"github.com/okian/tianji/internal/config"
	"github.com/okian/tianji/pkg/logger"
	"github.com/okian/tianji/pkg/metrics"
)

// HTTP server timeout constants. The write timeout leaves room for a slow
// chat upstream.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	corsMaxAge                = 300
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(); err != nil {
		logger.Get().Error(context.Background(), "tianji exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithOracle(newOracle(ctx, cfg)),
		app.WithConversations(conversation.NewInMemoryStore(
			conversation.WithMaxConversations(cfg.ChatConversations),
			conversation.WithMaxMessages(cfg.ChatMemoryMessages),
		)),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runEvery(gctx, metrics.Global().RefreshInterval(), updateSystemMetrics)
		return nil
	})

	g.Go(func() error {
		runEvery(gctx, serviceMetricsInterval, func() { _ = svc.GetStats() })
		return nil
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// newOracle picks the chat backend. Without an API key every chat gets the
// fallback reply.
func newOracle(ctx context.Context, cfg *config.Config) oracle.Oracle {
	if cfg.ChatAPIKey == "" {
		logger.Get().Warn(ctx, "chat_api_key not set; chat answers with the fallback reply")
		return oracle.StaticOracle{}
	}
	return oracle.NewHTTP(
		oracle.WithURL(cfg.ChatAPIURL),
		oracle.WithAPIKey(cfg.ChatAPIKey),
		oracle.WithModel(cfg.ChatModel),
		oracle.WithTemperature(cfg.ChatTemperature),
		oracle.WithMaxTokens(cfg.ChatMaxTokens),
		oracle.WithHistoryLimit(cfg.ChatHistoryLimit),
		oracle.WithTimeout(time.Duration(cfg.ChatTimeoutMS)*time.Millisecond),
		oracle.WithReplyPath(cfg.ChatReplyPath),
		oracle.WithBreaker(cfg.BreakerFailures, time.Duration(cfg.BreakerTimeoutMS)*time.Millisecond),
		oracle.WithLogger(logger.Named("oracle")),
	)
}

// buildHandler registers the site, docs and API on a ServeMux and fronts it
// with the chi middleware stack.
func buildHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         corsMaxAge,
	}))
	r.Mount("/", mux)
	return r
}

// runEvery calls fn on every tick until ctx is done.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
