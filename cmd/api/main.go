package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/smilecare-dental/cmd/mainconfig"
	"github.com/wolfman30/smilecare-dental/internal/admin"
	"github.com/wolfman30/smilecare-dental/internal/api/router"
	"github.com/wolfman30/smilecare-dental/internal/app/bootstrap"
	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/booking"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/internal/chat"
	appconfig "github.com/wolfman30/smilecare-dental/internal/config"
	"github.com/wolfman30/smilecare-dental/internal/contact"
	httpmiddleware "github.com/wolfman30/smilecare-dental/internal/http/middleware"
	"github.com/wolfman30/smilecare-dental/internal/notify"
	"github.com/wolfman30/smilecare-dental/internal/observability/metrics"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting smilecare API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := newServer(cfg, app.handler)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

const (
	baseWriteTimeout = 15 * time.Second
	writeHeadroom    = 5 * time.Second
)

// newServer keeps the write deadline past the chat relay timeout; otherwise the
// fallback reply to a stalled provider is never written.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	writeTimeout := baseWriteTimeout
	if floor := cfg.ChatTimeout + writeHeadroom; floor > writeTimeout {
		writeTimeout = floor
	}
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

type app struct {
	handler http.Handler
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// setupMetrics builds a private registry with Go/process collectors and the
// booking metrics, plus the /metrics handler serving it.
func setupMetrics() (http.Handler, *metrics.BookingMetrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m, reg
}

func loadLocation(name string, logger *logging.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown CLINIC_TZ, using UTC", "tz", name, "error", err)
		return time.UTC
	}
	return loc
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	a := &app{}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	loc := loadLocation(cfg.ClinicTZ, logger)
	metricsHandler, bookingMetrics, registry := setupMetrics()

	var (
		bedrockAPI chat.ConverseAPI
		sesAPI     notify.SESAPI
	)
	if mainconfig.NeedsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		bedrockAPI = bedrockruntime.NewFromConfig(awsCfg)
		sesAPI = sesv2.NewFromConfig(awsCfg)
	}

	store := appointments.NewStore(cat, appointments.WithLocation(loc))
	if cfg.SeedFixtures {
		if err := store.Seed(appointments.DemoFixtures(time.Now(), loc)); err != nil {
			return nil, fmt.Errorf("seed fixtures: %w", err)
		}
		logger.Info("seeded demo appointments")
	}

	emailSender, provider := bootstrap.BuildEmailSender(cfg, sesAPI, logger)
	logger.Info("email provider selected", "provider", provider)
	notifier := notify.NewBookingNotifier(emailSender, cat, cfg.ClinicInbox, logger.Component("notify"))
	svc := appointments.NewService(store, notifier, bookingMetrics, logger.Component("appointments"))

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, redisClient)
	}
	sessions := bootstrap.BuildSessionStore(redisClient, cfg, logger)
	wizard := booking.NewWizard(svc, sessions, cat,
		booking.WithWizardLocation(loc),
		booking.WithStepRecorder(bookingMetrics),
		booking.WithWizardLogger(logger.Component("booking")),
	)

	gate, err := admin.NewGate(cfg.AdminPassword, cfg.AdminJWTSecret, cfg.AdminTokenTTL, store)
	if err != nil {
		return nil, fmt.Errorf("admin gate: %w", err)
	}

	relay, relayCloser, err := bootstrap.BuildChatRelay(ctx, cfg, bedrockAPI, bookingMetrics, logger.Component("chat"))
	if err != nil {
		return nil, fmt.Errorf("chat relay: %w", err)
	}
	a.closers = append(a.closers, relayCloser)

	chatLimiter := httpmiddleware.NewRateLimiter(cfg.ChatRatePerSec, cfg.ChatRateBurst)
	contactLimiter := httpmiddleware.NewRateLimiter(0.2, 3)
	go chatLimiter.RunEviction(ctx, 5*time.Minute)
	go contactLimiter.RunEviction(ctx, 5*time.Minute)

	a.handler = router.New(&router.Config{
		Logger:             logger,
		CatalogHandler:     catalog.NewHandler(cat, logger),
		BookingHandler:     booking.NewHandler(wizard, logger),
		AdminHandler:       admin.NewHandler(admin.NewReview(store, svc), gate, cat, registry, logger.Component("admin")),
		ChatHandler:        chat.NewHandler(relay, chatLimiter, bookingMetrics, logger.Component("chat")),
		ContactHandler:     contact.NewHandler(notifier, logger),
		ContactLimiter:     contactLimiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return a, nil
}
