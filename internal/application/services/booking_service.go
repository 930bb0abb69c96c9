package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/providers"
	"github.com/zatekoja/careroute/internal/domain/repositories"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careroute/pkg/errors"
)

const maxPatientNameLength = 120

// BookingRequest is a patient's request to reserve one doctor slot
type BookingRequest struct {
	DoctorID    string `json:"doctor_id"`
	PatientName string `json:"patient_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// SlotState is one of a doctor's slots on a given date
type SlotState struct {
	Time  string `json:"time"`
	Taken bool   `json:"taken"`
}

// BookingService reserves doctor slots. The ledger is the only place the
// one-booking-per-slot rule is enforced.
type BookingService struct {
	catalog  repositories.CatalogRepository
	ledger   repositories.BookingLedger
	eventBus providers.EventBus
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewBookingService creates a booking service. eventBus may be nil.
func NewBookingService(
	catalog repositories.CatalogRepository,
	ledger repositories.BookingLedger,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *BookingService {
	return &BookingService{
		catalog:  catalog,
		ledger:   ledger,
		eventBus: eventBus,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for the past-date check
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Book validates req and reserves the slot in a single ledger call
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.Book")
	defer span.End()

	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	if req.DoctorID == "" || req.PatientName == "" || req.Date == "" || req.Time == "" {
		return nil, s.reject(ctx, apperrors.NewValidationError("doctor, patient name, date and time are required"))
	}
	if len([]rune(req.PatientName)) > maxPatientNameLength {
		return nil, s.reject(ctx, apperrors.NewValidationError(fmt.Sprintf("patient name must be at most %d characters", maxPatientNameLength)))
	}
	if err := s.validateDate(req.Date); err != nil {
		return nil, s.reject(ctx, err)
	}

	doctor, err := s.catalog.DoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, s.reject(ctx, err)
	}
	if !doctor.Availability.AcceptsBookings() {
		return nil, s.reject(ctx, apperrors.NewValidationError("doctor is not accepting bookings"))
	}
	if !doctor.HasSlot(req.Time) {
		return nil, s.reject(ctx, apperrors.NewValidationError(fmt.Sprintf("%s is not one of the doctor's slots", req.Time)))
	}

	booking := &entities.Booking{
		DoctorID:    doctor.ID,
		PatientName: req.PatientName,
		Date:        req.Date,
		Time:        req.Time,
		Status:      entities.BookingStatusConfirmed,
	}

	if err := s.ledger.Reserve(ctx, booking); err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, repositories.ErrSlotTaken) {
			observability.RecordBooking(ctx, s.metrics, "conflict")
			return nil, apperrors.NewConflictError("this slot is already booked", err)
		}
		observability.RecordBooking(ctx, s.metrics, "error")
		return nil, apperrors.NewInternalError("failed to reserve slot", err)
	}

	observability.RecordBooking(ctx, s.metrics, "confirmed")
	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("doctor_id", booking.DoctorID).
		Str("date", booking.Date).
		Str("slot", booking.Time).
		Msg("Booking confirmed")

	s.publish(ctx, booking)
	return booking, nil
}

// SlotAvailability lists the doctor's slots on date with their taken state
func (s *BookingService) SlotAvailability(ctx context.Context, doctorID, date string) ([]SlotState, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(entities.BookingDateLayout, date); err != nil {
		return nil, apperrors.NewValidationError("date must be in YYYY-MM-DD format")
	}

	doctor, err := s.catalog.DoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.ledger.ListByDoctorDate(ctx, doctor.ID, date)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load bookings", err)
	}
	taken := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		taken[b.Time] = true
	}

	slots := make([]SlotState, 0, len(doctor.AvailableSlots))
	for _, label := range doctor.AvailableSlots {
		slots = append(slots, SlotState{Time: label, Taken: taken[label]})
	}
	return slots, nil
}

// Events subscribes to slot changes for one doctor. It returns nil when no
// event bus is configured.
func (s *BookingService) Events(ctx context.Context, doctorID string) (<-chan *entities.BookingEvent, error) {
	if s.eventBus == nil {
		return nil, nil
	}
	if _, err := s.catalog.DoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.eventBus.Subscribe(ctx, providers.GetDoctorChannel(doctorID))
}

func (s *BookingService) validateDate(date string) error {
	day, err := time.Parse(entities.BookingDateLayout, date)
	if err != nil {
		return apperrors.NewValidationError("date must be in YYYY-MM-DD format")
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return apperrors.NewValidationError("date must not be in the past")
	}
	return nil
}

func (s *BookingService) reject(ctx context.Context, err error) error {
	observability.RecordBooking(ctx, s.metrics, "rejected")
	return err
}

// publish is best effort; the booking is already committed
func (s *BookingService) publish(ctx context.Context, booking *entities.Booking) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewBookingConfirmedEvent(booking)
	if err := s.eventBus.Publish(ctx, providers.GetDoctorChannel(booking.DoctorID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("booking_id", booking.ID).Msg("Failed to publish booking event")
	}
}
