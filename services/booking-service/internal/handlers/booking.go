package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/calsync"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

type BookingHandler struct {
	shops      ShopStore
	appts      AppointmentStore
	outbox     OutboxWriter
	dispatcher calsync.Dispatcher
	observer   BookingObserver
	logger     *slog.Logger
}

// BookingObserver counts booking outcomes: booked, slot_taken or error.
type BookingObserver interface {
	BookingResult(result string)
}

// NewBookingHandler wires the booking endpoint. outbox may be nil when no broker is configured;
// dispatcher may be nil when calendar sync is disabled.
func NewBookingHandler(shops ShopStore, appts AppointmentStore, events OutboxWriter, dispatcher calsync.Dispatcher, logger *slog.Logger) *BookingHandler {
	if dispatcher == nil {
		dispatcher = calsync.NoopDispatcher{}
	}
	return &BookingHandler{shops: shops, appts: appts, outbox: events, dispatcher: dispatcher, logger: logger}
}

func (h *BookingHandler) WithObserver(o BookingObserver) *BookingHandler {
	h.observer = o
	return h
}

func (h *BookingHandler) observe(result string) {
	if h.observer != nil {
		h.observer.BookingResult(result)
	}
}

type bookRequest struct {
	ShopID        string `json:"shop_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Service       string `json:"service"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// Book serves POST /api/appointments.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ShopID = strings.TrimSpace(req.ShopID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.Service = strings.TrimSpace(req.Service)
	if req.ShopID == "" || req.CustomerName == "" || req.CustomerEmail == "" || req.StartTime == "" {
		writeError(w, http.StatusBadRequest, "shop_id, customer_name, customer_email and start_time are required")
		return
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_email")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}

	shop, ok := loadShop(r.Context(), w, h.shops, h.logger, req.ShopID)
	if !ok {
		return
	}

	slotMinutes := shop.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = availability.DefaultSlotMinutes
	}
	end := start.Add(time.Duration(slotMinutes) * time.Minute)
	if strings.TrimSpace(req.EndTime) != "" {
		end, err = time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_time must be RFC3339")
			return
		}
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	customer := model.Customer{Name: req.CustomerName, Email: req.CustomerEmail, Phone: strings.TrimSpace(req.CustomerPhone)}
	appt := model.Appointment{ShopID: shop.ID, Service: req.Service, StartTime: start.UTC(), EndTime: end.UTC()}

	var hooks []storage.TxHook
	if h.outbox != nil {
		hooks = append(hooks, h.writeOutbox)
	}

	created, customer, err := h.appts.Book(r.Context(), customer, appt, hooks...)
	if err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			h.observe("slot_taken")
			writeError(w, http.StatusConflict, "slot already booked")
			return
		}
		h.observe("error")
		h.logger.Error("book appointment failed", "err", err, "shop_id", shop.ID)
		writeError(w, http.StatusInternalServerError, "failed to book appointment")
		return
	}

	h.observe("booked")
	h.logger.Info("appointment booked", "appointment_id", created.ID, "shop_id", shop.ID, "customer_id", customer.ID)
	writeJSON(w, http.StatusCreated, appointmentResponse{Success: true, Appointment: toAppointmentItem(created)})
	h.dispatcher.Dispatch(r.Context(), created.ID)
}

func (h *BookingHandler) writeOutbox(ctx context.Context, tx pgx.Tx, appt model.Appointment, customer model.Customer) error {
	evt, err := outbox.NewAppointmentBooked(appt, customer)
	if err != nil {
		return err
	}
	return h.outbox.Insert(ctx, tx, evt)
}
