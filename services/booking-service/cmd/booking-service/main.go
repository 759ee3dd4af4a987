package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/libs/metrics"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/calsync"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/consumer"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/inbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/oauthstate"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/settings"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/tokencrypt"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxBodyBytes    = 1 << 20
	bodyLogBytes    = 1000
	outboxRetention = 7 * 24 * time.Hour
	inboxRetention  = 30 * 24 * time.Hour
)

func main() {
	cfg, err := settings.Load()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := runtime.ShutdownContext(5 * time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()
	}

	var cipher *tokencrypt.Cipher
	if cfg.TokenEncryptKey != "" {
		cipher, err = tokencrypt.FromBase64Key(cfg.TokenEncryptKey)
		if err != nil {
			logger.Error("invalid TOKEN_ENCRYPTION_KEY", "err", err)
			panic(err)
		}
	} else {
		logger.Warn("TOKEN_ENCRYPTION_KEY not set; google tokens are stored in plaintext")
	}

	shops := storage.NewShopRepository(pool)
	bookings := storage.NewBookingRepository(pool)
	tokens := storage.NewTokenRepository(pool, cipher)
	maintenance := storage.NewMaintenanceRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	collector := metrics.NewCollector("barberbook")

	googleHTTP := otelx.HTTPClient(cfg.SyncTimeout)
	calendar := gcal.NewBreaker(gcal.NewClient(cfg.Google, cfg.GoogleCalendarID, googleHTTP), logger, gcal.BreakerConfig{
		OnStateChange: collector.BreakerState,
	})
	syncer := calsync.NewSyncer(bookings, shops, tokens, calendar, logger).WithObserver(collector)

	var (
		dispatcher   calsync.Dispatcher = calsync.NoopDispatcher{}
		inline       *calsync.InlineDispatcher
		outboxWriter handlers.OutboxWriter
	)
	if cfg.KafkaEnabled() {
		outboxWriter = outboxRepo
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
			Published: collector.Published,
		})
		go publisher.Run(ctx)

		if cfg.Google.Configured() {
			eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   outbox.TopicAppointmentBooked,
			}, syncer.HandleMessage)
			go eventConsumer.Run(ctx)
		}
	} else if cfg.Google.Configured() {
		inline = calsync.NewInlineDispatcher(syncer, logger, cfg.SyncTimeout)
		dispatcher = inline
	}

	if cfg.Google.Configured() {
		sweeper := calsync.NewSweeper(syncer, bookings, logger, calsync.SweeperConfig{Interval: cfg.SweepInterval})
		go sweeper.Run(ctx)
	} else {
		logger.Warn("google oauth not configured; calendar sync disabled")
	}

	var states oauthstate.Store = oauthstate.NewMemoryStore(oauthstate.DefaultTTL)
	if rdb != nil {
		states = oauthstate.NewRedisStore(rdb, oauthstate.DefaultTTL)
	}

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if cfg.KafkaEnabled() {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", collector.Handler())

	maintenanceHandler := handlers.NewMaintenanceHandler(maintenance, cfg.MaintenanceWindow, logger).
		AddPurge("outbox_events", outboxRetention, outboxRepo.PurgePublished).
		AddPurge("inbox_events", inboxRetention, inboxRepo.PurgeBefore)
	handlers.Register(mux, handlers.Routes{
		Shops:        handlers.NewShopHandler(shops, logger),
		Availability: handlers.NewAvailabilityHandler(shops, bookings, logger),
		Booking:      handlers.NewBookingHandler(shops, bookings, outboxWriter, dispatcher, logger).WithObserver(collector),
		Google:       handlers.NewGoogleAuthHandler(cfg.Google, shops, tokens, states, cfg.FrontendURL, googleHTTP, logger),
		Maintenance:  maintenanceHandler,
		Static:       handlers.Static(cfg.StaticDir),
	})

	var rateLimit httpx.Middleware
	if rdb != nil {
		rateLimit = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit, time.Minute, "barberbook:rl").Middleware(logger, true)
	} else {
		rateLimit = httpx.NewRateLimiter(cfg.RateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLog(logger, "/api/", bodyLogBytes),
		httpx.WithBodyLimit(maxBodyBytes),
		httpx.WithTimeout(cfg.RequestTimeout, isOAuthRoute),
		rateLimit,
		collector.Middleware,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "kafka", cfg.KafkaEnabled(), "google", cfg.Google.Configured())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := runtime.ShutdownContext(10 * time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	waitForSyncs(shutdownCtx, inline, logger)
	logger.Info("http server stopped")
}

// isOAuthRoute exempts the Google redirects from the request timeout; the token exchange has
// its own client timeout.
func isOAuthRoute(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/auth/")
}

func waitForSyncs(ctx context.Context, inline *calsync.InlineDispatcher, logger *slog.Logger) {
	if inline == nil {
		return
	}
	inline.Wait(ctx)
	logger.Info("calendar syncs drained")
}
