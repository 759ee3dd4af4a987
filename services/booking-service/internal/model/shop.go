package model

import (
	"time"
)

const DefaultTimezone = "America/Sao_Paulo"

type Shop struct {
	ID          string
	Name        string
	Owner       string
	Email       string
	Phone       string
	Address     string
	SlotMinutes int
	Timezone    string
	CreatedAt   time.Time
}

// Location resolves the shop's IANA timezone, falling back to DefaultTimezone and then UTC.
func (s Shop) Location() *time.Location {
	for _, name := range []string{s.Timezone, DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// OpeningWindow is stored as minutes since midnight; SlotMinutes 0 means the shop default.
type OpeningWindow struct {
	Weekday     time.Weekday
	OpenMinute  int
	CloseMinute int
	SlotMinutes int
}
