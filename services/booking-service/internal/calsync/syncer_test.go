package calsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"golang.org/x/oauth2"
)

type fakeAppointments struct {
	mu       sync.Mutex
	appts    map[string]model.Appointment
	customer model.Customer
	unsynced []string
}

func (f *fakeAppointments) Get(_ context.Context, id string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppointments) GetCustomer(context.Context, string) (model.Customer, error) {
	return f.customer, nil
}

func (f *fakeAppointments) SetCalendarEventID(_ context.Context, id, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.appts[id]
	if a.CalendarEventID != "" {
		return false, nil
	}
	a.CalendarEventID = eventID
	f.appts[id] = a
	return true, nil
}

func (f *fakeAppointments) ListUnsynced(context.Context, time.Time, int) ([]string, error) {
	return f.unsynced, nil
}

type fakeShops struct{ shop model.Shop }

func (f fakeShops) Get(context.Context, string) (model.Shop, error) { return f.shop, nil }

type fakeTokens struct {
	tok       model.CalendarToken
	ok        bool
	refreshed string
}

func (f *fakeTokens) Get(context.Context, string) (model.CalendarToken, bool, error) {
	return f.tok, f.ok, nil
}

func (f *fakeTokens) UpdateAccessToken(_ context.Context, _ string, access string, _ time.Time) error {
	f.refreshed = access
	return nil
}

type fakeCalendar struct {
	mu     sync.Mutex
	calls  int
	last   gcal.Event
	err    error
	access string
}

func (f *fakeCalendar) InsertEvent(_ context.Context, grant gcal.Grant, ev gcal.Event) (string, *oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = ev
	access := grant.AccessToken
	if f.access != "" {
		access = f.access
	}
	if f.err != nil {
		return "", &oauth2.Token{AccessToken: access}, f.err
	}
	return "evt-1", &oauth2.Token{AccessToken: access}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixture() (*fakeAppointments, *fakeTokens, *fakeCalendar, *Syncer) {
	appts := &fakeAppointments{
		appts: map[string]model.Appointment{
			"appt-1": {
				ID:         "appt-1",
				ShopID:     "shop-1",
				CustomerID: "cust-1",
				Service:    "Corte",
				StartTime:  time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC),
				EndTime:    time.Date(2026, 1, 28, 12, 30, 0, 0, time.UTC),
			},
		},
		customer: model.Customer{ID: "cust-1", Name: "Ana", Email: "ana@example.com"},
	}
	tokens := &fakeTokens{ok: true, tok: model.CalendarToken{ShopID: "shop-1", AccessToken: "old", RefreshToken: "refresh"}}
	cal := &fakeCalendar{}
	shops := fakeShops{shop: model.Shop{ID: "shop-1", Timezone: "UTC"}}
	return appts, tokens, cal, NewSyncer(appts, shops, tokens, cal, discardLogger())
}

func TestSyncInsertsOnce(t *testing.T) {
	appts, tokens, cal, s := fixture()
	cal.access = "new"

	status, err := s.Sync(context.Background(), "appt-1")
	if err != nil || status != StatusSynced {
		t.Fatalf("expected synced, got %q %v", status, err)
	}
	if appts.appts["appt-1"].CalendarEventID != "evt-1" {
		t.Fatalf("expected event id stored")
	}
	if tokens.refreshed != "new" {
		t.Fatalf("expected refreshed access token persisted, got %q", tokens.refreshed)
	}
	if cal.last.CustomerName != "Ana" || cal.last.Service != "Corte" || cal.last.Timezone != "UTC" {
		t.Fatalf("unexpected event %+v", cal.last)
	}

	status, err = s.Sync(context.Background(), "appt-1")
	if err != nil || status != StatusAlreadySynced {
		t.Fatalf("expected already synced, got %q %v", status, err)
	}
	if cal.calls != 1 {
		t.Fatalf("expected a single insert, got %d", cal.calls)
	}
}

func TestSyncSkipsWithoutRefreshToken(t *testing.T) {
	_, tokens, cal, s := fixture()
	tokens.tok.RefreshToken = ""

	status, err := s.Sync(context.Background(), "appt-1")
	if err != nil || status != StatusNotConnected {
		t.Fatalf("expected not connected, got %q %v", status, err)
	}
	tokens.ok = false
	if status, _ := s.Sync(context.Background(), "appt-1"); status != StatusNotConnected {
		t.Fatalf("expected not connected without grant, got %q", status)
	}
	if cal.calls != 0 {
		t.Fatalf("expected no calendar calls")
	}
}

func TestSyncMissingAppointment(t *testing.T) {
	_, _, _, s := fixture()
	status, err := s.Sync(context.Background(), "nope")
	if err != nil || status != StatusMissing {
		t.Fatalf("expected missing, got %q %v", status, err)
	}
}

func TestSyncFailureKeepsAppointmentUnsynced(t *testing.T) {
	appts, _, cal, s := fixture()
	cal.err = errors.New("google 503")

	if _, err := s.Sync(context.Background(), "appt-1"); err == nil {
		t.Fatalf("expected error")
	}
	if appts.appts["appt-1"].CalendarEventID != "" {
		t.Fatalf("expected no event id after failure")
	}
}

func TestHandleMessage(t *testing.T) {
	appts, _, _, s := fixture()
	if err := s.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)}); err != nil {
		t.Fatalf("malformed payloads must be dropped, got %v", err)
	}
	if err := s.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"appointment_id":"appt-1"}`)}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if appts.appts["appt-1"].CalendarEventID == "" {
		t.Fatalf("expected appointment synced from event")
	}
}

func TestSweeperRetries(t *testing.T) {
	appts, _, _, s := fixture()
	appts.unsynced = []string{"appt-1", "gone"}

	sw := NewSweeper(s, appts, discardLogger(), SweeperConfig{})
	n, err := sw.SweepOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected 1 synced, got %d %v", n, err)
	}
}

func TestInlineDispatcher(t *testing.T) {
	appts, _, _, s := fixture()
	d := NewInlineDispatcher(s, discardLogger(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, "appt-1")
	cancel()

	waitCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	d.Wait(waitCtx)

	appts.mu.Lock()
	defer appts.mu.Unlock()
	if appts.appts["appt-1"].CalendarEventID != "evt-1" {
		t.Fatalf("expected sync to survive request cancellation")
	}
}

type countingObserver struct{ seen []string }

func (o *countingObserver) CalendarSync(status string) { o.seen = append(o.seen, status) }

func TestSyncReportsOutcome(t *testing.T) {
	_, _, cal, s := fixture()
	obs := &countingObserver{}
	s.WithObserver(obs)

	if _, err := s.Sync(context.Background(), "missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cal.err = errors.New("boom")
	if _, err := s.Sync(context.Background(), "appt-1"); err == nil {
		t.Fatalf("expected failure")
	}
	cal.err = nil
	if _, err := s.Sync(context.Background(), "appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"missing", "failed", "synced"}
	if len(obs.seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, obs.seen)
	}
	for i := range want {
		if obs.seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, obs.seen)
		}
	}
}
