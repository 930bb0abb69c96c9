package catalog

import (
	"context"
	"fmt"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/repositories"
	apperrors "github.com/zatekoja/careroute/pkg/errors"
)

// MemoryCatalog serves a loaded Catalog. It is never mutated after
// construction, so concurrent reads need no locking. Returned slices are
// fresh copies; the records they point to are shared and must be treated
// as read-only.
type MemoryCatalog struct {
	catalog     *Catalog
	doctorsByID map[string]*entities.Doctor
}

// NewMemoryCatalog indexes c for lookup
func NewMemoryCatalog(c *Catalog) *MemoryCatalog {
	if c == nil {
		c = &Catalog{}
	}
	byID := make(map[string]*entities.Doctor, len(c.Doctors))
	for _, d := range c.Doctors {
		byID[d.ID] = d
	}
	return &MemoryCatalog{catalog: c, doctorsByID: byID}
}

var _ repositories.CatalogRepository = (*MemoryCatalog)(nil)

// Doctors returns every doctor in catalog order
func (m *MemoryCatalog) Doctors(ctx context.Context) ([]*entities.Doctor, error) {
	return cloneSlice(m.catalog.Doctors), nil
}

// DoctorByID retrieves a single doctor
func (m *MemoryCatalog) DoctorByID(ctx context.Context, id string) (*entities.Doctor, error) {
	d, ok := m.doctorsByID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", id))
	}
	return d, nil
}

// Hospitals returns every hospital in catalog order
func (m *MemoryCatalog) Hospitals(ctx context.Context) ([]*entities.Hospital, error) {
	return cloneSlice(m.catalog.Hospitals), nil
}

// Labs returns every lab in catalog order
func (m *MemoryCatalog) Labs(ctx context.Context) ([]*entities.Lab, error) {
	return cloneSlice(m.catalog.Labs), nil
}

// Pharmacies returns every pharmacy in catalog order
func (m *MemoryCatalog) Pharmacies(ctx context.Context) ([]*entities.Pharmacy, error) {
	return cloneSlice(m.catalog.Pharmacies), nil
}

// DonationOffers returns every donation offer in catalog order
func (m *MemoryCatalog) DonationOffers(ctx context.Context) ([]*entities.DonationOffer, error) {
	return cloneSlice(m.catalog.Donations), nil
}

func cloneSlice[T any](in []*T) []*T {
	out := make([]*T, len(in))
	copy(out, in)
	return out
}
