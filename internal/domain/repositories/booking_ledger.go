package repositories

import (
	"context"
	"errors"

	"github.com/zatekoja/careroute/internal/domain/entities"
)

// ErrSlotTaken is returned by Reserve when the slot already holds a booking
var ErrSlotTaken = errors.New("slot already booked")

// BookingLedger stores confirmed bookings for the lifetime of the process
// (or of its shared backend). Reserve is the only write.
type BookingLedger interface {
	// Reserve atomically inserts the booking if its slot is free, assigning
	// ID and CreatedAt. It returns ErrSlotTaken otherwise.
	Reserve(ctx context.Context, booking *entities.Booking) error

	// IsSlotBooked reports whether a booking exists for the exact key
	IsSlotBooked(ctx context.Context, key entities.SlotKey) (bool, error)

	// ListByDoctorDate returns bookings for one doctor on one date
	ListByDoctorDate(ctx context.Context, doctorID, date string) ([]*entities.Booking, error)
}
