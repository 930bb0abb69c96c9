package services_test

import (
	"context"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/careroute/internal/domain/entities"
)

// Mocks

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Doctors(ctx context.Context) ([]*entities.Doctor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockCatalogRepository) DoctorByID(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockCatalogRepository) Hospitals(ctx context.Context) ([]*entities.Hospital, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hospital), args.Error(1)
}

func (m *MockCatalogRepository) Labs(ctx context.Context) ([]*entities.Lab, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Lab), args.Error(1)
}

func (m *MockCatalogRepository) Pharmacies(ctx context.Context) ([]*entities.Pharmacy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Pharmacy), args.Error(1)
}

func (m *MockCatalogRepository) DonationOffers(ctx context.Context) ([]*entities.DonationOffer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DonationOffer), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.BookingEvent), args.Error(1)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

// stubClassifier is a hand-rolled gateway stub; the triage tests need
// blocking behavior that is awkward to express with mock.Mock.
type stubClassifier struct {
	calls    atomic.Int32
	classify func(ctx context.Context, report *entities.SymptomReport) (*entities.ClassificationResult, error)
}

func (s *stubClassifier) Classify(ctx context.Context, report *entities.SymptomReport) (*entities.ClassificationResult, error) {
	s.calls.Add(1)
	return s.classify(ctx, report)
}
