package entities

import (
	"time"

	"github.com/google/uuid"
)

// BookingEventType represents the type of booking event
type BookingEventType string

const (
	BookingEventTypeConfirmed BookingEventType = "booking.confirmed"
)

// BookingEvent announces that a doctor's slot changed state. It carries no
// patient data so it can be fanned out to any open slot picker.
type BookingEvent struct {
	ID        string           `json:"id"`
	EventType BookingEventType `json:"event_type"`
	DoctorID  string           `json:"doctor_id"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewBookingConfirmedEvent creates the event published after a reservation
func NewBookingConfirmedEvent(booking *Booking) *BookingEvent {
	return &BookingEvent{
		ID:        uuid.NewString(),
		EventType: BookingEventTypeConfirmed,
		DoctorID:  booking.DoctorID,
		Date:      booking.Date,
		Time:      booking.Time,
		Timestamp: time.Now().UTC(),
	}
}
