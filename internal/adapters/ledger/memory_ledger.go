package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/repositories"
)

// MemoryLedger keeps bookings for the lifetime of the process
type MemoryLedger struct {
	mu       sync.Mutex
	bySlot   map[entities.SlotKey]*entities.Booking
	byDoctor map[doctorDate][]*entities.Booking
	now      func() time.Time
}

type doctorDate struct {
	doctorID string
	date     string
}

// NewMemoryLedger creates an empty in-process ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		bySlot:   make(map[entities.SlotKey]*entities.Booking),
		byDoctor: make(map[doctorDate][]*entities.Booking),
		now:      time.Now,
	}
}

var _ repositories.BookingLedger = (*MemoryLedger)(nil)

// Reserve inserts booking if its slot is free. The check and the insert
// happen under one lock.
func (l *MemoryLedger) Reserve(ctx context.Context, booking *entities.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := booking.Key()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.bySlot[key]; taken {
		return repositories.ErrSlotTaken
	}

	booking.ID = uuid.NewString()
	booking.CreatedAt = l.now().UTC()
	if booking.Status == "" {
		booking.Status = entities.BookingStatusConfirmed
	}

	stored := *booking
	l.bySlot[key] = &stored
	dd := doctorDate{doctorID: key.DoctorID, date: key.Date}
	l.byDoctor[dd] = append(l.byDoctor[dd], &stored)
	return nil
}

// IsSlotBooked reports whether a booking exists for key
func (l *MemoryLedger) IsSlotBooked(ctx context.Context, key entities.SlotKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.bySlot[key]
	return ok, nil
}

// ListByDoctorDate returns copies of the bookings in reservation order
func (l *MemoryLedger) ListByDoctorDate(ctx context.Context, doctorID, date string) ([]*entities.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := l.byDoctor[doctorDate{doctorID: doctorID, date: date}]
	out := make([]*entities.Booking, 0, len(stored))
	for _, b := range stored {
		c := *b
		out = append(out, &c)
	}
	return out, nil
}
