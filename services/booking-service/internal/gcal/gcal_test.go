package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

var testCreds = Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURL:  "http://localhost:5000/api/auth/google/callback",
}

func TestAuthCodeURL(t *testing.T) {
	raw, err := AuthCodeURL(testCreds, "state-123")
	if err != nil {
		t.Fatalf("AuthCodeURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url: %v", err)
	}
	q := u.Query()
	if q.Get("access_type") != "offline" {
		t.Fatalf("expected offline access, got %q", q.Get("access_type"))
	}
	if q.Get("prompt") != "consent" {
		t.Fatalf("expected forced consent, got %q", q.Get("prompt"))
	}
	if q.Get("state") != "state-123" || q.Get("client_id") != "client-id" {
		t.Fatalf("unexpected query %v", q)
	}
	if q.Get("scope") != "https://www.googleapis.com/auth/calendar.events" {
		t.Fatalf("unexpected scope %q", q.Get("scope"))
	}
	if q.Get("redirect_uri") != testCreds.RedirectURL {
		t.Fatalf("unexpected redirect %q", q.Get("redirect_uri"))
	}
}

func TestNotConfigured(t *testing.T) {
	if _, err := AuthCodeURL(Credentials{ClientID: "x"}, "s"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBuildEvent(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	ev := BuildEvent(Event{
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		Service:       "Corte",
		Start:         time.Date(2026, 1, 28, 9, 0, 0, 0, loc),
		End:           time.Date(2026, 1, 28, 9, 30, 0, 0, loc),
		Timezone:      "America/Sao_Paulo",
	})
	if ev.Summary != "Appointment - Ana" {
		t.Fatalf("unexpected summary %q", ev.Summary)
	}
	if !strings.Contains(ev.Description, "Corte") || !strings.Contains(ev.Description, "ana@example.com") {
		t.Fatalf("unexpected description %q", ev.Description)
	}
	if ev.Start.DateTime != "2026-01-28T09:00:00-03:00" || ev.Start.TimeZone != "America/Sao_Paulo" {
		t.Fatalf("unexpected start %+v", ev.Start)
	}
}

func TestInsertEventRequiresRefreshToken(t *testing.T) {
	c := NewClient(testCreds, "", nil)
	if _, _, err := c.InsertEvent(context.Background(), Grant{AccessToken: "a"}, Event{}); err != ErrNoRefreshToken {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
}

// rewriteTransport sends every request to a local test server.
type rewriteTransport struct{ target *url.URL }

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func TestInsertEventRefreshesAndInserts(t *testing.T) {
	var insertedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "fresh-access",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
			insertedAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "evt-42"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	target, _ := url.Parse(srv.URL)
	hc := &http.Client{Transport: rewriteTransport{target: target}}
	c := NewClient(testCreds, "primary", hc)

	id, tok, err := c.InsertEvent(context.Background(), Grant{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}, Event{CustomerName: "Ana", Start: time.Now(), End: time.Now().Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}
	if id != "evt-42" {
		t.Fatalf("expected evt-42, got %q", id)
	}
	if tok == nil || tok.AccessToken != "fresh-access" {
		t.Fatalf("expected refreshed token, got %+v", tok)
	}
	if insertedAuth != "Bearer fresh-access" {
		t.Fatalf("expected insert with fresh token, got %q", insertedAuth)
	}
}
