package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const TopicAppointmentBooked = "booking.appointment.booked.v1"

// AppointmentBooked is the payload of TopicAppointmentBooked.
type AppointmentBooked struct {
	AppointmentID string `json:"appointment_id"`
	ShopID        string `json:"shop_id"`
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	Service       string `json:"service"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

func NewAppointmentBooked(appt model.Appointment, customer model.Customer) (Event, error) {
	payload, err := json.Marshal(AppointmentBooked{
		AppointmentID: appt.ID,
		ShopID:        appt.ShopID,
		CustomerID:    customer.ID,
		CustomerEmail: customer.Email,
		Service:       appt.Service,
		StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     TopicAppointmentBooked,
		Payload:       payload,
	}, nil
}
