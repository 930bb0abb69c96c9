package entities

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// BookingDateLayout is the calendar date format used for booking dates
const BookingDateLayout = "2006-01-02"

// SlotKey identifies a bookable slot. At most one confirmed booking may
// exist per key.
type SlotKey struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Booking is a confirmed appointment with a doctor for one slot
type Booking struct {
	ID          string        `json:"id"`
	DoctorID    string        `json:"doctor_id"`
	PatientName string        `json:"patient_name"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Key returns the slot the booking occupies
func (b *Booking) Key() SlotKey {
	return SlotKey{DoctorID: b.DoctorID, Date: b.Date, Time: b.Time}
}
