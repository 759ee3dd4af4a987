package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type shopSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SlotMinutes int    `json:"slot_minutes"`
	Timezone    string `json:"timezone"`
}

type shopDetail struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	SlotMinutes int    `json:"slot_minutes"`
	Timezone    string `json:"timezone"`
	CreatedAt   string `json:"created_at"`
}

type openingWindowItem struct {
	Weekday     int    `json:"weekday"`
	Open        string `json:"open"`
	Close       string `json:"close"`
	SlotMinutes int    `json:"slot_minutes,omitempty"`
}

type listShopsResponse struct {
	Success bool          `json:"success"`
	Shops   []shopSummary `json:"shops"`
}

type shopResponse struct {
	Success bool                `json:"success"`
	Shop    shopDetail          `json:"shop"`
	Hours   []openingWindowItem `json:"hours"`
}

type slotItem struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type availabilityResponse struct {
	Success  bool       `json:"success"`
	ShopID   string     `json:"shop_id"`
	Date     string     `json:"date"`
	Timezone string     `json:"timezone"`
	Slots    []slotItem `json:"slots"`
}

type appointmentItem struct {
	ID         string `json:"id"`
	ShopID     string `json:"shop_id"`
	CustomerID string `json:"customer_id"`
	Service    string `json:"service"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	CreatedAt  string `json:"created_at"`
}

type appointmentResponse struct {
	Success     bool            `json:"success"`
	Appointment appointmentItem `json:"appointment"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type maintenanceResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	LastRun string `json:"last_run,omitempty"`
}

func toShopSummary(s model.Shop) shopSummary {
	return shopSummary{ID: s.ID, Name: s.Name, SlotMinutes: s.SlotMinutes, Timezone: s.Timezone}
}

func toShopDetail(s model.Shop) shopDetail {
	return shopDetail{
		ID:          s.ID,
		Name:        s.Name,
		Owner:       s.Owner,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		SlotMinutes: s.SlotMinutes,
		Timezone:    s.Timezone,
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

func toWindowItems(windows []model.OpeningWindow) []openingWindowItem {
	items := make([]openingWindowItem, 0, len(windows))
	for _, w := range windows {
		items = append(items, openingWindowItem{
			Weekday:     int(w.Weekday),
			Open:        availability.Clock(w.OpenMinute).String(),
			Close:       availability.Clock(w.CloseMinute).String(),
			SlotMinutes: w.SlotMinutes,
		})
	}
	return items
}

func toAppointmentItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		ID:         a.ID,
		ShopID:     a.ShopID,
		CustomerID: a.CustomerID,
		Service:    a.Service,
		StartTime:  formatTime(a.StartTime),
		EndTime:    formatTime(a.EndTime),
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	httpx.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteError(w, status, msg)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
