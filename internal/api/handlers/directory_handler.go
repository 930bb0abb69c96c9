package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/pkg/geo"
)

// DirectoryService defines the listing operations the handler needs
type DirectoryService interface {
	ListDoctors(ctx context.Context, specialty string, userPos *geo.Coordinate) ([]services.RankedDoctor, error)
	Specialties(ctx context.Context) ([]entities.LocalizedText, error)
	GetDoctor(ctx context.Context, id string) (*entities.Doctor, error)
	ListHospitals(ctx context.Context, status entities.HospitalStatus, userPos *geo.Coordinate) ([]services.RankedHospital, error)
	ListLabs(ctx context.Context, userPos *geo.Coordinate) ([]services.RankedLab, error)
	ListPharmacies(ctx context.Context, userPos *geo.Coordinate) ([]services.RankedPharmacy, error)
	ListDonations(ctx context.Context, category entities.DonationCategory, userPos *geo.Coordinate) ([]services.RankedDonation, error)
}

// DirectoryHandler serves the provider directory pages
type DirectoryHandler struct {
	service DirectoryService
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(service DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

// ListDoctors handles GET /api/doctors
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	pos, ok := h.position(w, r)
	if !ok {
		return
	}

	specialty := strings.TrimSpace(r.URL.Query().Get("specialty"))
	doctors, err := h.service.ListDoctors(r.Context(), specialty, pos)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listings := doctorListings(doctors, parseLanguage(r))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": listings,
		"count":   len(listings),
	})
}

// ListSpecialties handles GET /api/doctors/specialties
func (h *DirectoryHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.service.Specialties(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"specialties": specialties,
	})
}

// GetDoctor handles GET /api/doctors/{id}
func (h *DirectoryHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}
	pos, ok := h.position(w, r)
	if !ok {
		return
	}

	doctor, err := h.service.GetDoctor(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, doctorListing(doctor, geo.DistanceFrom(pos, doctor.Location), parseLanguage(r)))
}

// ListHospitals handles GET /api/hospitals
func (h *DirectoryHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	pos, ok := h.position(w, r)
	if !ok {
		return
	}

	status := entities.HospitalStatus(strings.ToLower(r.URL.Query().Get("status")))
	if status != "" && !status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "invalid status parameter")
		return
	}

	hospitals, err := h.service.ListHospitals(r.Context(), status, pos)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listings := hospitalListings(hospitals, parseLanguage(r))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": listings,
		"count":     len(listings),
	})
}

// ListLabs handles GET /api/labs
func (h *DirectoryHandler) ListLabs(w http.ResponseWriter, r *http.Request) {
	pos, ok := h.position(w, r)
	if !ok {
		return
	}

	labs, err := h.service.ListLabs(r.Context(), pos)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listings := labListings(labs, parseLanguage(r))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"labs":  listings,
		"count": len(listings),
	})
}

// ListPharmacies handles GET /api/pharmacies
func (h *DirectoryHandler) ListPharmacies(w http.ResponseWriter, r *http.Request) {
	pos, ok := h.position(w, r)
	if !ok {
		return
	}

	pharmacies, err := h.service.ListPharmacies(r.Context(), pos)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listings := pharmacyListings(pharmacies, parseLanguage(r))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pharmacies": listings,
		"count":      len(listings),
	})
}

// ListDonations handles GET /api/donations
func (h *DirectoryHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	pos, ok := h.position(w, r)
	if !ok {
		return
	}

	category := entities.DonationCategory(strings.ToLower(r.URL.Query().Get("category")))
	if category != "" && !category.IsValid() {
		respondWithError(w, http.StatusBadRequest, "invalid category parameter")
		return
	}

	offers, err := h.service.ListDonations(r.Context(), category, pos)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listings := donationListings(offers, parseLanguage(r))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"donations": listings,
		"count":     len(listings),
	})
}

func (h *DirectoryHandler) position(w http.ResponseWriter, r *http.Request) (*geo.Coordinate, bool) {
	pos, err := parsePosition(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return pos, true
}
