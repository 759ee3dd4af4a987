package availability

import (
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// ForShop computes the free slots of a shop on the civil date of day, which must already be in
// the shop's location.
func ForShop(day time.Time, shop model.Shop, opening []model.OpeningWindow, booked []model.Appointment) []Slot {
	windows := make([]Window, 0, len(opening))
	for _, w := range opening {
		windows = append(windows, Window{
			Weekday:     w.Weekday,
			Open:        Clock(w.OpenMinute),
			Close:       Clock(w.CloseMinute),
			SlotMinutes: w.SlotMinutes,
		})
	}
	busy := make([]Interval, 0, len(booked))
	for _, a := range booked {
		busy = append(busy, Interval{Start: a.StartTime, End: a.EndTime})
	}
	return ComputeSlots(day, windows, busy, shop.SlotMinutes)
}

// DayBounds returns the civil date in loc as [midnight, next midnight). It fails for anything
// but YYYY-MM-DD.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	next := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	return day, next, nil
}
