package model

import "time"

type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Appointment is immutable once created; only CalendarEventID is filled in later by the sync.
type Appointment struct {
	ID              string
	ShopID          string
	CustomerID      string
	Service         string
	StartTime       time.Time
	EndTime         time.Time
	CalendarEventID string
	CreatedAt       time.Time
}

// CalendarToken holds a shop's Google OAuth grant. RefreshToken is empty when Google did not
// issue one; Expiry is zero when unknown.
type CalendarToken struct {
	ShopID       string
	AccessToken  string
	RefreshToken string
	Scope        string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}
