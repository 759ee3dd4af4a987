// Package calsync copies booked appointments into the shop's Google Calendar.
package calsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/gcal"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"golang.org/x/oauth2"
)

type Appointments interface {
	Get(ctx context.Context, id string) (model.Appointment, error)
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	SetCalendarEventID(ctx context.Context, appointmentID, eventID string) (bool, error)
	ListUnsynced(ctx context.Context, since time.Time, limit int) ([]string, error)
}

type Shops interface {
	Get(ctx context.Context, id string) (model.Shop, error)
}

type Tokens interface {
	Get(ctx context.Context, shopID string) (model.CalendarToken, bool, error)
	UpdateAccessToken(ctx context.Context, shopID, accessToken string, expiry time.Time) error
}

type Calendar interface {
	InsertEvent(ctx context.Context, grant gcal.Grant, ev gcal.Event) (string, *oauth2.Token, error)
}

type Status string

const (
	StatusSynced        Status = "synced"
	StatusAlreadySynced Status = "already_synced"
	StatusNotConnected  Status = "not_connected"
	StatusMissing       Status = "missing"
	StatusFailed        Status = "failed"
)

// Observer is told the outcome of every sync attempt.
type Observer interface {
	CalendarSync(status string)
}

type Syncer struct {
	appts    Appointments
	shops    Shops
	tokens   Tokens
	calendar Calendar
	observer Observer
	logger   *slog.Logger
}

func NewSyncer(appts Appointments, shops Shops, tokens Tokens, calendar Calendar, logger *slog.Logger) *Syncer {
	return &Syncer{appts: appts, shops: shops, tokens: tokens, calendar: calendar, logger: logger}
}

func (s *Syncer) WithObserver(o Observer) *Syncer {
	s.observer = o
	return s
}

// Sync inserts the calendar event for one appointment. It is a no-op for appointments already
// synced and for shops without a refresh token.
func (s *Syncer) Sync(ctx context.Context, appointmentID string) (Status, error) {
	status, err := s.sync(ctx, appointmentID)
	if s.observer != nil {
		if err != nil {
			s.observer.CalendarSync(string(StatusFailed))
		} else {
			s.observer.CalendarSync(string(status))
		}
	}
	return status, err
}

func (s *Syncer) sync(ctx context.Context, appointmentID string) (Status, error) {
	appt, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return StatusMissing, nil
		}
		return "", fmt.Errorf("load appointment: %w", err)
	}
	if appt.CalendarEventID != "" {
		return StatusAlreadySynced, nil
	}

	tok, ok, err := s.tokens.Get(ctx, appt.ShopID)
	if err != nil {
		return "", fmt.Errorf("load google token: %w", err)
	}
	if !ok || tok.RefreshToken == "" {
		return StatusNotConnected, nil
	}

	shop, err := s.shops.Get(ctx, appt.ShopID)
	if err != nil {
		return "", fmt.Errorf("load shop: %w", err)
	}
	customer, err := s.appts.GetCustomer(ctx, appt.CustomerID)
	if err != nil {
		return "", fmt.Errorf("load customer: %w", err)
	}

	loc := shop.Location()
	eventID, fresh, err := s.calendar.InsertEvent(ctx, gcal.Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}, gcal.Event{
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Service:       appt.Service,
		Start:         appt.StartTime.In(loc),
		End:           appt.EndTime.In(loc),
		Timezone:      loc.String(),
	})
	if fresh != nil && fresh.AccessToken != "" && fresh.AccessToken != tok.AccessToken {
		if uerr := s.tokens.UpdateAccessToken(ctx, appt.ShopID, fresh.AccessToken, fresh.Expiry); uerr != nil {
			s.logger.Warn("failed to persist refreshed google token", "err", uerr, "shop_id", appt.ShopID)
		}
	}
	if err != nil {
		if errors.Is(err, gcal.ErrNoRefreshToken) {
			return StatusNotConnected, nil
		}
		return "", err
	}

	stored, err := s.appts.SetCalendarEventID(ctx, appt.ID, eventID)
	if err != nil {
		return "", fmt.Errorf("store calendar event id: %w", err)
	}
	if !stored {
		s.logger.Warn("appointment synced concurrently; duplicate calendar event possible",
			"appointment_id", appt.ID, "event_id", eventID)
	}
	s.logger.Info("appointment synced to google calendar", "appointment_id", appt.ID, "shop_id", appt.ShopID, "event_id", eventID)
	return StatusSynced, nil
}

// HandleMessage consumes outbox.TopicAppointmentBooked events. Malformed payloads are dropped.
func (s *Syncer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var payload outbox.AppointmentBooked
	if err := json.Unmarshal(msg.Value, &payload); err != nil || payload.AppointmentID == "" {
		s.logger.Error("invalid appointment event payload", "err", err, "topic", msg.Topic)
		return nil
	}
	_, err := s.Sync(ctx, payload.AppointmentID)
	return err
}
