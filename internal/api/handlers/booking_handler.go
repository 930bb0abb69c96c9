package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/entities"
)

// BookingService defines the interface for booking operations
type BookingService interface {
	Book(ctx context.Context, req services.BookingRequest) (*entities.Booking, error)
	SlotAvailability(ctx context.Context, doctorID, date string) ([]services.SlotState, error)
}

// BookingHandler handles booking requests
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{
		service: service,
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.service.Book(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// GetSlots handles GET /api/doctors/{id}/slots?date=YYYY-MM-DD
func (h *BookingHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		respondWithError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slots, err := h.service.SlotAvailability(r.Context(), doctorID, date)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     slots,
	})
}
