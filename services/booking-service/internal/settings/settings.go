// Package settings reads the booking service configuration from the environment.
package settings

import (
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
)

type Settings struct {
	Service        string
	Port           string
	DatabaseURL    string
	MigrateOnStart bool
	DBMaxConns     int32

	FrontendURL    string
	AllowedOrigins []string
	StaticDir      string
	RequestTimeout time.Duration
	RateLimit      int

	Google            gcal.Credentials
	GoogleCalendarID  string
	TokenEncryptKey   string
	SyncTimeout       time.Duration
	SweepInterval     time.Duration
	MaintenanceWindow time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaGroupID string
}

const defaultFrontendURL = "http://localhost:5173"

func Load() (Settings, error) {
	port, err := config.Port("PORT", "5000")
	if err != nil {
		return Settings{}, err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return Settings{}, err
	}

	frontend := config.String("FRONTEND_URL", defaultFrontendURL)
	origins := append([]string{frontend, defaultFrontendURL}, config.List("CORS_ALLOWED_ORIGINS", "")...)

	return Settings{
		Service:        config.String("SERVICE_NAME", "booking-service"),
		Port:           port,
		DatabaseURL:    dbURL,
		MigrateOnStart: config.Bool("MIGRATE_ON_START", true),
		DBMaxConns:     int32(config.Int("DB_MAX_CONNS", 10, 1)),

		FrontendURL:    frontend,
		AllowedOrigins: origins,
		StaticDir:      config.String("STATIC_DIR", "public"),
		RequestTimeout: config.Seconds("REQUEST_TIMEOUT_SECONDS", 15*time.Second),
		RateLimit:      config.Int("RATE_LIMIT_PER_MINUTE", 120, 1),

		Google: gcal.Credentials{
			ClientID:     config.String("GOOGLE_CLIENT_ID", ""),
			ClientSecret: config.String("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  config.String("GOOGLE_REDIRECT_URI", ""),
		},
		GoogleCalendarID:  config.String("GOOGLE_CALENDAR_ID", gcal.DefaultCalendarID),
		TokenEncryptKey:   config.String("TOKEN_ENCRYPTION_KEY", ""),
		SyncTimeout:       config.Seconds("CALENDAR_SYNC_TIMEOUT_SECONDS", 15*time.Second),
		SweepInterval:     config.Seconds("CALENDAR_SWEEP_INTERVAL_SECONDS", 5*time.Minute),
		MaintenanceWindow: time.Duration(config.Int("MAINTENANCE_INTERVAL_DAYS", 6, 1)) * 24 * time.Hour,

		RedisAddr:     config.String("REDIS_ADDR", ""),
		RedisPassword: config.String("REDIS_PASSWORD", ""),
		RedisDB:       config.Int("REDIS_DB", 0, 0),

		KafkaBrokers: kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		KafkaGroupID: config.String("KAFKA_GROUP_ID", "booking-service"),
	}, nil
}

func (s Settings) KafkaEnabled() bool {
	return len(s.KafkaBrokers) > 0
}
