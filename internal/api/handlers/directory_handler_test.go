package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careroute/internal/api/handlers"
	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/entities"
	apperrors "github.com/zatekoja/careroute/pkg/errors"
	"github.com/zatekoja/careroute/pkg/geo"
)

type listingBody struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	DistanceKm    float64 `json:"distance_km"`
	PhoneURI      string  `json:"phone_uri"`
	DirectionsURL string  `json:"directions_url"`
}

func heartClinicDoctor() *entities.Doctor {
	return &entities.Doctor{
		ID:           "doc-1",
		Name:         entities.LocalizedText{En: "Dr. Ahmed Hassan", Ar: "د. أحمد حسن"},
		Specialty:    entities.LocalizedText{En: "Cardiology", Ar: "أمراض القلب"},
		Clinic:       entities.LocalizedText{En: "Heart Care Clinic"},
		Location:     geo.Coordinate{Latitude: 30.0444, Longitude: 31.2357},
		Phone:        "+20 2 2574 1000",
		Availability: entities.AvailabilityAvailable,
	}
}

func TestDirectoryHandler_ListDoctors(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)

	pos := &geo.Coordinate{Latitude: 30.05, Longitude: 31.24}
	svc.On("ListDoctors", mock.Anything, "cardio", pos).Return([]services.RankedDoctor{
		{Doctor: heartClinicDoctor(), DistanceKm: 0.7432},
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/doctors?specialty=cardio&lat=30.05&lng=31.24&lang=ar", nil)
	w := httptest.NewRecorder()
	handler.ListDoctors(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Doctors []struct {
			listingBody
			DisplaySpecialty string `json:"display_specialty"`
			DisplayClinic    string `json:"display_clinic"`
		} `json:"doctors"`
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, 1, body.Count)

	d := body.Doctors[0]
	assert.Equal(t, "doc-1", d.ID)
	assert.Equal(t, "د. أحمد حسن", d.DisplayName)
	assert.Equal(t, "أمراض القلب", d.DisplaySpecialty)
	assert.Equal(t, "Heart Care Clinic", d.DisplayClinic, "falls back to English")
	assert.Equal(t, 0.7, d.DistanceKm)
	assert.Equal(t, "tel:+20225741000", d.PhoneURI)
	svc.AssertExpectations(t)
}

func TestDirectoryHandler_ListDoctors_NoPosition(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)
	svc.On("ListDoctors", mock.Anything, "", (*geo.Coordinate)(nil)).Return([]services.RankedDoctor{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
	w := httptest.NewRecorder()
	handler.ListDoctors(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"doctors":[],"count":0}`, w.Body.String())
}

func TestDirectoryHandler_RejectsBadPosition(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"lat only", "?lat=30"},
		{"lng only", "?lng=31"},
		{"not a number", "?lat=abc&lng=31"},
		{"out of range", "?lat=30&lng=200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDirectoryService)
			handler := handlers.NewDirectoryHandler(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/hospitals"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ListHospitals(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "ListHospitals", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDirectoryHandler_ListHospitals_StatusFilter(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)
	svc.On("ListHospitals", mock.Anything, entities.HospitalStatusAvailable, (*geo.Coordinate)(nil)).Return([]services.RankedHospital{
		{Hospital: &entities.Hospital{
			ID:       "hosp-1",
			Name:     entities.LocalizedText{En: "Kasr Al Ainy Hospital"},
			Address:  entities.LocalizedText{En: "Garden City"},
			Location: geo.Coordinate{Latitude: 30.031, Longitude: 31.229},
			Phone:    "+20 2 2365 4060",
			Status:   entities.HospitalStatusAvailable,
		}},
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/hospitals?status=AVAILABLE", nil)
	w := httptest.NewRecorder()
	handler.ListHospitals(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Hospitals []struct {
			listingBody
			DisplayAddress string `json:"display_address"`
		} `json:"hospitals"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Hospitals, 1)
	assert.Equal(t, "Garden City", body.Hospitals[0].DisplayAddress)
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=30.031,31.229", body.Hospitals[0].DirectionsURL)
}

func TestDirectoryHandler_ListHospitals_InvalidStatus(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/hospitals?status=closed", nil)
	w := httptest.NewRecorder()
	handler.ListHospitals(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectoryHandler_GetDoctor(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)
	svc.On("GetDoctor", mock.Anything, "doc-1").Return(heartClinicDoctor(), nil)
	svc.On("GetDoctor", mock.Anything, "doc-x").Return(nil, apperrors.NewNotFoundError("doctor doc-x not found"))

	t.Run("found", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/doctors/doc-1", nil)
		r.SetPathValue("id", "doc-1")
		w := httptest.NewRecorder()
		handler.GetDoctor(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var body listingBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Dr. Ahmed Hassan", body.DisplayName)
		assert.Zero(t, body.DistanceKm)
	})

	t.Run("unknown", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/doctors/doc-x", nil)
		r.SetPathValue("id", "doc-x")
		w := httptest.NewRecorder()
		handler.GetDoctor(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDirectoryHandler_ListSpecialties(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)
	svc.On("Specialties", mock.Anything).Return([]entities.LocalizedText{
		{En: "Cardiology", Ar: "أمراض القلب"},
		{En: "Ophthalmology", Ar: "طب العيون"},
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/doctors/specialties", nil)
	w := httptest.NewRecorder()
	handler.ListSpecialties(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"specialties":[{"en":"Cardiology","ar":"أمراض القلب"},{"en":"Ophthalmology","ar":"طب العيون"}]}`, w.Body.String())
}

func TestDirectoryHandler_OtherListings(t *testing.T) {
	svc := new(MockDirectoryService)
	handler := handlers.NewDirectoryHandler(svc)

	svc.On("ListLabs", mock.Anything, (*geo.Coordinate)(nil)).Return([]services.RankedLab{
		{Lab: &entities.Lab{ID: "lab-1", Tests: []string{"CBC"}}},
	}, nil)
	svc.On("ListPharmacies", mock.Anything, (*geo.Coordinate)(nil)).Return([]services.RankedPharmacy{
		{Pharmacy: &entities.Pharmacy{ID: "pharm-1", Phone: "19600", IsOpen: true}},
	}, nil)
	svc.On("ListDonations", mock.Anything, entities.DonationCategoryBlood, (*geo.Coordinate)(nil)).Return([]services.RankedDonation{
		{Offer: &entities.DonationOffer{ID: "don-2", DonorName: "Egyptian Red Crescent", Category: entities.DonationCategoryBlood}},
	}, nil)

	t.Run("labs", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListLabs(w, httptest.NewRequest(http.MethodGet, "/api/labs", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"display_tests":["CBC"]`)
	})

	t.Run("pharmacies", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPharmacies(w, httptest.NewRequest(http.MethodGet, "/api/pharmacies", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"phone_uri":"tel:19600"`)
		assert.Contains(t, w.Body.String(), `"is_open":true`)
	})

	t.Run("donations", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListDonations(w, httptest.NewRequest(http.MethodGet, "/api/donations?category=blood", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"display_name":"Egyptian Red Crescent"`)
	})

	t.Run("donations bad category", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListDonations(w, httptest.NewRequest(http.MethodGet, "/api/donations?category=money", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
