package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/pkg/geo"
)

type MockTriageService struct {
	mock.Mock
}

func (m *MockTriageService) Classify(ctx context.Context, sessionID string, report *entities.SymptomReport) (*entities.ClassificationResult, error) {
	args := m.Called(ctx, sessionID, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClassificationResult), args.Error(1)
}

func (m *MockTriageService) LatestResult(sessionID string) (*entities.ClassificationResult, bool) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*entities.ClassificationResult), args.Bool(1)
}

type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, result *entities.ClassificationResult, userPos *geo.Coordinate) (*services.Recommendation, error) {
	args := m.Called(ctx, result, userPos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Recommendation), args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Book(ctx context.Context, req services.BookingRequest) (*entities.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingService) SlotAvailability(ctx context.Context, doctorID, date string) ([]services.SlotState, error) {
	args := m.Called(ctx, doctorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.SlotState), args.Error(1)
}

type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) ListDoctors(ctx context.Context, specialty string, userPos *geo.Coordinate) ([]services.RankedDoctor, error) {
	args := m.Called(ctx, specialty, userPos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RankedDoctor), args.Error(1)
}

func (m *MockDirectoryService) Specialties(ctx context.Context) ([]entities.LocalizedText, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LocalizedText), args.Error(1)
}

func (m *MockDirectoryService) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDirectoryService) ListHospitals(ctx context.Context, status entities.HospitalStatus, userPos *geo.Coordinate) ([]services.RankedHospital, error) {
	args := m.Called(ctx, status, userPos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RankedHospital), args.Error(1)
}

func (m *MockDirectoryService) ListLabs(ctx context.Context, userPos *geo.Coordinate) ([]services.RankedLab, error) {
	args := m.Called(ctx, userPos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RankedLab), args.Error(1)
}

func (m *MockDirectoryService) ListPharmacies(ctx context.Context, userPos *geo.Coordinate) ([]services.RankedPharmacy, error) {
	args := m.Called(ctx, userPos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RankedPharmacy), args.Error(1)
}

func (m *MockDirectoryService) ListDonations(ctx context.Context, category entities.DonationCategory, userPos *geo.Coordinate) ([]services.RankedDonation, error) {
	args := m.Called(ctx, category, userPos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RankedDonation), args.Error(1)
}

// fakeSlotSource hands out a channel the test controls
type fakeSlotSource struct {
	events chan *entities.BookingEvent
	err    error
}

func (f *fakeSlotSource) Events(ctx context.Context, doctorID string) (<-chan *entities.BookingEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.events == nil {
		return nil, nil
	}
	return f.events, nil
}
