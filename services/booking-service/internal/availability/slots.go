package availability

import "time"

const DefaultSlotMinutes = 30

type Interval struct {
	Start time.Time
	End   time.Time
}

type Slot struct {
	Start time.Time
	End   time.Time
}

// Window is one opening window of a weekday; a shop may have several per day. SlotMinutes <= 0
// means "use the shop default".
type Window struct {
	Weekday     time.Weekday
	Open        Clock
	Close       Clock
	SlotMinutes int
}

// Overlaps is the half-open test: [a.Start,a.End) and [b.Start,b.End) share an instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// ComputeSlots lists the bookable slots of day (any instant of the civil date, in the shop's
// location). Each window of day's weekday is strided from Open in steps of its slot length and a
// slot is kept only if it ends by Close and overlaps no booked interval. Without a window for
// the weekday, a 09:00-17:00 window at defaultSlotMinutes is used. Booked intervals with a zero
// start or end are ignored.
//
// Slots are ordered by window (input order), then by start time.
func ComputeSlots(day time.Time, windows []Window, booked []Interval, defaultSlotMinutes int) []Slot {
	if defaultSlotMinutes <= 0 {
		defaultSlotMinutes = DefaultSlotMinutes
	}

	weekday := day.Weekday()
	var todays []Window
	for _, w := range windows {
		if w.Weekday == weekday {
			todays = append(todays, w)
		}
	}
	if len(todays) == 0 {
		todays = []Window{{Weekday: weekday, Open: DefaultOpen, Close: DefaultClose, SlotMinutes: defaultSlotMinutes}}
	}

	busy := make([]Interval, 0, len(booked))
	for _, b := range booked {
		if b.Start.IsZero() || b.End.IsZero() {
			continue
		}
		busy = append(busy, b)
	}

	slots := []Slot{}
	for _, w := range todays {
		length := w.SlotMinutes
		if length <= 0 {
			length = defaultSlotMinutes
		}
		step := time.Duration(length) * time.Minute
		closeAt := w.Close.On(day)

		for cur := w.Open.On(day); !cur.Add(step).After(closeAt); cur = cur.Add(step) {
			candidate := Interval{Start: cur, End: cur.Add(step)}
			if overlapsAny(candidate, busy) {
				continue
			}
			slots = append(slots, Slot(candidate))
		}
	}
	return slots
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(b, candidate) {
			return true
		}
	}
	return false
}
