package settings

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/barberbook")
	t.Setenv("PORT", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("MAINTENANCE_INTERVAL_DAYS", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Port != "5000" {
		t.Fatalf("expected port 5000, got %q", s.Port)
	}
	if s.FrontendURL != defaultFrontendURL {
		t.Fatalf("unexpected frontend url %q", s.FrontendURL)
	}
	if s.MaintenanceWindow != 6*24*time.Hour {
		t.Fatalf("unexpected maintenance window %s", s.MaintenanceWindow)
	}
	if s.KafkaEnabled() {
		t.Fatalf("kafka should be disabled without brokers")
	}
	if s.Google.Configured() {
		t.Fatalf("google should not be configured")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadOriginsAndBrokers(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/barberbook")
	t.Setenv("FRONTEND_URL", "https://barber.example")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example, ")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"https://barber.example", defaultFrontendURL, "https://admin.example"}
	if len(s.AllowedOrigins) != len(want) {
		t.Fatalf("unexpected origins %#v", s.AllowedOrigins)
	}
	for i := range want {
		if s.AllowedOrigins[i] != want[i] {
			t.Fatalf("origin %d: got %q want %q", i, s.AllowedOrigins[i], want[i])
		}
	}
	if !s.KafkaEnabled() || len(s.KafkaBrokers) != 2 {
		t.Fatalf("unexpected brokers %#v", s.KafkaBrokers)
	}
}
