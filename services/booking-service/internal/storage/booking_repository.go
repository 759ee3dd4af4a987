package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

// TxHook runs inside the booking transaction after the appointment row is written; an error
// rolls the booking back.
type TxHook func(ctx context.Context, tx pgx.Tx, appt model.Appointment, customer model.Customer) error

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Book finds or creates the customer by email and inserts the appointment in one transaction.
// An overlap with an existing appointment of the same shop returns ErrSlotTaken.
func (r *BookingRepository) Book(ctx context.Context, customer model.Customer, appt model.Appointment, hooks ...TxHook) (model.Appointment, model.Customer, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return model.Appointment{}, model.Customer{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	customer, err = r.UpsertCustomerTx(ctx, tx, customer)
	if err != nil {
		return model.Appointment{}, model.Customer{}, fmt.Errorf("upsert customer: %w", err)
	}

	appt.CustomerID = customer.ID
	appt, err = r.CreateTx(ctx, tx, appt)
	if err != nil {
		if db.IsExclusionViolation(err) {
			return model.Appointment{}, model.Customer{}, ErrSlotTaken
		}
		return model.Appointment{}, model.Customer{}, fmt.Errorf("insert appointment: %w", err)
	}

	for _, hook := range hooks {
		if err := hook(ctx, tx, appt, customer); err != nil {
			return model.Appointment{}, model.Customer{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, model.Customer{}, err
	}
	return appt, customer, nil
}

// UpsertCustomerTx returns the existing customer for the email, or inserts a new one. An
// existing customer's name and phone are left untouched.
func (r *BookingRepository) UpsertCustomerTx(ctx context.Context, tx pgx.Tx, c model.Customer) (model.Customer, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO customers (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id::text, name, email, phone
	`, uuid.NewString(), c.Name, c.Email, c.Phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	return c, err
}

func (r *BookingRepository) CreateTx(ctx context.Context, tx pgx.Tx, appt model.Appointment) (model.Appointment, error) {
	appt.ID = uuid.NewString()
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, shop_id, customer_id, service, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, appt.ID, appt.ShopID, appt.CustomerID, appt.Service, appt.StartTime, appt.EndTime).Scan(&appt.CreatedAt)
	return appt, err
}

// ListBookedIntervals returns the shop's appointments overlapping [from, to).
func (r *BookingRepository) ListBookedIntervals(ctx context.Context, shopID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, shop_id::text, customer_id::text, service, start_time, end_time,
			COALESCE(calendar_event_id, ''), created_at
		FROM appointments
		WHERE shop_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, shopID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.ShopID, &a.CustomerID, &a.Service, &a.StartTime, &a.EndTime, &a.CalendarEventID, &a.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	var a model.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, shop_id::text, customer_id::text, service, start_time, end_time,
			COALESCE(calendar_event_id, ''), created_at
		FROM appointments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.ShopID, &a.CustomerID, &a.Service, &a.StartTime, &a.EndTime, &a.CalendarEventID, &a.CreatedAt)
	if err != nil {
		return model.Appointment{}, notFound(err)
	}
	return a, nil
}

func (r *BookingRepository) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email, phone
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		return model.Customer{}, notFound(err)
	}
	return c, nil
}

// SetCalendarEventID records the Google event once; it reports false when another worker got
// there first.
func (r *BookingRepository) SetCalendarEventID(ctx context.Context, appointmentID, eventID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET calendar_event_id = $2
		WHERE id = $1 AND calendar_event_id IS NULL
	`, appointmentID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListUnsynced returns ids of appointments created since the given time that have no calendar
// event yet although their shop has connected Google Calendar.
func (r *BookingRepository) ListUnsynced(ctx context.Context, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.id::text
		FROM appointments a
		JOIN shop_google_tokens t ON t.shop_id = a.shop_id
		WHERE a.calendar_event_id IS NULL
			AND a.created_at >= $1
			AND t.refresh_token <> ''
		ORDER BY a.created_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}
