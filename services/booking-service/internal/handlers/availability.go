package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
)

const dateLayout = "2006-01-02"

type AvailabilityHandler struct {
	shops  ShopStore
	appts  AppointmentStore
	logger *slog.Logger
}

func NewAvailabilityHandler(shops ShopStore, appts AppointmentStore, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{shops: shops, appts: appts, logger: logger}
}

// Get serves /api/shops/{id}/availability?date=YYYY-MM-DD. The date is a civil date in the
// shop's timezone.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	shop, ok := loadShop(r.Context(), w, h.shops, h.logger, r.PathValue("id"))
	if !ok {
		return
	}
	loc := shop.Location()
	day, next, err := availability.DayBounds(date, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	windows, err := h.shops.ListOpeningWindows(r.Context(), shop.ID)
	if err != nil {
		h.logger.Error("list opening windows failed", "err", err, "shop_id", shop.ID)
		writeError(w, http.StatusInternalServerError, "failed to compute availability")
		return
	}
	booked, err := h.appts.ListBookedIntervals(r.Context(), shop.ID, day, next)
	if err != nil {
		h.logger.Error("list booked intervals failed", "err", err, "shop_id", shop.ID)
		writeError(w, http.StatusInternalServerError, "failed to compute availability")
		return
	}

	slots := availability.ForShop(day, shop, windows, booked)
	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{Start: formatTime(s.Start), End: formatTime(s.End)})
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		Success:  true,
		ShopID:   shop.ID,
		Date:     date,
		Timezone: loc.String(),
		Slots:    items,
	})
}
