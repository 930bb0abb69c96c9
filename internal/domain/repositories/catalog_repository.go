package repositories

import (
	"context"

	"github.com/zatekoja/careroute/internal/domain/entities"
)

// CatalogRepository is read-only access to the provider directory
type CatalogRepository interface {
	// Doctors returns every doctor in catalog order
	Doctors(ctx context.Context) ([]*entities.Doctor, error)

	// DoctorByID retrieves a single doctor
	DoctorByID(ctx context.Context, id string) (*entities.Doctor, error)

	// Hospitals returns every hospital in catalog order
	Hospitals(ctx context.Context) ([]*entities.Hospital, error)

	// Labs returns every lab in catalog order
	Labs(ctx context.Context) ([]*entities.Lab, error)

	// Pharmacies returns every pharmacy in catalog order
	Pharmacies(ctx context.Context) ([]*entities.Pharmacy, error)

	// DonationOffers returns every donation offer in catalog order
	DonationOffers(ctx context.Context) ([]*entities.DonationOffer, error)
}
