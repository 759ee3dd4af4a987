package handlers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

type ShopStore interface {
	Create(ctx context.Context, shop model.Shop, windows []model.OpeningWindow) (model.Shop, error)
	List(ctx context.Context) ([]model.Shop, error)
	Get(ctx context.Context, id string) (model.Shop, error)
	ListOpeningWindows(ctx context.Context, shopID string) ([]model.OpeningWindow, error)
}

type AppointmentStore interface {
	Book(ctx context.Context, customer model.Customer, appt model.Appointment, hooks ...storage.TxHook) (model.Appointment, model.Customer, error)
	ListBookedIntervals(ctx context.Context, shopID string, from, to time.Time) ([]model.Appointment, error)
}

type OutboxWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type TokenStore interface {
	Upsert(ctx context.Context, tok model.CalendarToken) error
}

type MaintenanceStore interface {
	LastCompleted(ctx context.Context, task string) (time.Time, bool, error)
	Touch(ctx context.Context) error
	Record(ctx context.Context, task, status, detail string) error
}
