package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/oauthstate"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"golang.org/x/oauth2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeShops struct {
	mu      sync.Mutex
	shops   map[string]model.Shop
	windows map[string][]model.OpeningWindow
	created int
}

func newFakeShops() *fakeShops {
	return &fakeShops{shops: map[string]model.Shop{}, windows: map[string][]model.OpeningWindow{}}
}

func (f *fakeShops) add(shop model.Shop, windows ...model.OpeningWindow) model.Shop {
	f.mu.Lock()
	defer f.mu.Unlock()
	if shop.ID == "" {
		shop.ID = uuid.NewString()
	}
	f.shops[shop.ID] = shop
	f.windows[shop.ID] = windows
	return shop
}

func (f *fakeShops) Create(_ context.Context, shop model.Shop, windows []model.OpeningWindow) (model.Shop, error) {
	f.mu.Lock()
	for _, s := range f.shops {
		if s.Email == shop.Email {
			f.mu.Unlock()
			return model.Shop{}, storage.ErrEmailTaken
		}
	}
	f.created++
	f.mu.Unlock()
	shop.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return f.add(shop, windows...), nil
}

func (f *fakeShops) List(context.Context) ([]model.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Shop, 0, len(f.shops))
	for _, s := range f.shops {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeShops) Get(_ context.Context, id string) (model.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shops[id]
	if !ok {
		return model.Shop{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeShops) ListOpeningWindows(_ context.Context, shopID string) ([]model.OpeningWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[shopID], nil
}

type fakeAppointments struct {
	mu       sync.Mutex
	booked   []model.Appointment
	from, to time.Time
	err      error
}

func (f *fakeAppointments) Book(ctx context.Context, customer model.Customer, appt model.Appointment, hooks ...storage.TxHook) (model.Appointment, model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Appointment{}, model.Customer{}, f.err
	}
	for _, b := range f.booked {
		if b.ShopID == appt.ShopID && b.StartTime.Before(appt.EndTime) && b.EndTime.After(appt.StartTime) {
			return model.Appointment{}, model.Customer{}, storage.ErrSlotTaken
		}
	}
	customer.ID = uuid.NewString()
	appt.ID = uuid.NewString()
	appt.CustomerID = customer.ID
	appt.CreatedAt = time.Now()
	for _, hook := range hooks {
		if err := hook(ctx, nil, appt, customer); err != nil {
			return model.Appointment{}, model.Customer{}, err
		}
	}
	f.booked = append(f.booked, appt)
	return appt, customer, nil
}

func (f *fakeAppointments) ListBookedIntervals(_ context.Context, shopID string, from, to time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.from, f.to = from, to
	var out []model.Appointment
	for _, b := range f.booked {
		if b.ShopID == shopID && b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeOutbox struct {
	events []outbox.Event
}

func (f *fakeOutbox) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	f.events = append(f.events, evt)
	return nil
}

type fakeDispatcher struct {
	ids []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, id string) {
	f.ids = append(f.ids, id)
}

type fakeTokens struct {
	saved []model.CalendarToken
	err   error
}

func (f *fakeTokens) Upsert(_ context.Context, tok model.CalendarToken) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, tok)
	return nil
}

type fakeMaintenance struct {
	last     time.Time
	hasLast  bool
	touchErr error
	records  []string
}

func (f *fakeMaintenance) LastCompleted(context.Context, string) (time.Time, bool, error) {
	return f.last, f.hasLast, nil
}

func (f *fakeMaintenance) Touch(context.Context) error { return f.touchErr }

func (f *fakeMaintenance) Record(_ context.Context, _ string, status, _ string) error {
	f.records = append(f.records, status)
	return nil
}

type testEnv struct {
	shops       *fakeShops
	appts       *fakeAppointments
	outbox      *fakeOutbox
	dispatcher  *fakeDispatcher
	tokens      *fakeTokens
	states      *oauthstate.MemoryStore
	maintenance *fakeMaintenance
	results     *fakeObserver
	google      *GoogleAuthHandler
	server      http.Handler
}

type fakeObserver struct{ counts map[string]int }

func (f *fakeObserver) BookingResult(result string) { f.counts[result]++ }

var testCreds = gcal.Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURL:  "http://localhost:5000/api/auth/google/callback",
}

func newTestEnv() *testEnv {
	env := &testEnv{
		shops:       newFakeShops(),
		appts:       &fakeAppointments{},
		outbox:      &fakeOutbox{},
		dispatcher:  &fakeDispatcher{},
		tokens:      &fakeTokens{},
		states:      oauthstate.NewMemoryStore(oauthstate.DefaultTTL),
		maintenance: &fakeMaintenance{},
		results:     &fakeObserver{counts: map[string]int{}},
	}
	logger := testLogger()
	env.google = NewGoogleAuthHandler(testCreds, env.shops, env.tokens, env.states, "http://localhost:5173", nil, logger)
	env.google.exchange = func(_ context.Context, code string) (*oauth2.Token, error) {
		if code == "bad" {
			return nil, context.DeadlineExceeded
		}
		return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}, nil
	}

	mux := http.NewServeMux()
	Register(mux, Routes{
		Shops:        NewShopHandler(env.shops, logger),
		Availability: NewAvailabilityHandler(env.shops, env.appts, logger),
		Booking:      NewBookingHandler(env.shops, env.appts, env.outbox, env.dispatcher, logger).WithObserver(env.results),
		Google:       env.google,
		Maintenance:  NewMaintenanceHandler(env.maintenance, 6*24*time.Hour, logger),
	})
	env.server = mux
	return env
}

func (env *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}
