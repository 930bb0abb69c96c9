package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/repositories"
	"github.com/zatekoja/careroute/pkg/geo"
)

// RankedPharmacy is a pharmacy with its distance from the user
type RankedPharmacy struct {
	Pharmacy   *entities.Pharmacy
	DistanceKm float64
}

// RankedDonation is a donation offer with its distance from the user
type RankedDonation struct {
	Offer      *entities.DonationOffer
	DistanceKm float64
}

// DirectoryService serves the full provider listings, nearest first
type DirectoryService struct {
	catalog repositories.CatalogRepository
}

// NewDirectoryService creates a directory service
func NewDirectoryService(catalog repositories.CatalogRepository) *DirectoryService {
	return &DirectoryService{catalog: catalog}
}

// ListDoctors returns doctors whose specialty contains specialty (all when
// empty), available first and then nearest first.
func (s *DirectoryService) ListDoctors(ctx context.Context, specialty string, userPos *geo.Coordinate) ([]RankedDoctor, error) {
	doctors, err := s.catalog.Doctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctors: %w", err)
	}

	out := make([]RankedDoctor, 0, len(doctors))
	for _, d := range doctors {
		if specialty != "" && !Containment(d.Specialty.En, specialty) && !(d.Specialty.Ar != "" && Containment(d.Specialty.Ar, specialty)) {
			continue
		}
		out = append(out, RankedDoctor{Doctor: d, DistanceKm: geo.DistanceFrom(userPos, d.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Doctor.Availability.Rank(), out[j].Doctor.Availability.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out, nil
}

// Specialties returns the distinct doctor specialties in catalog order
func (s *DirectoryService) Specialties(ctx context.Context) ([]entities.LocalizedText, error) {
	doctors, err := s.catalog.Doctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctors: %w", err)
	}

	seen := make(map[string]struct{}, len(doctors))
	out := make([]entities.LocalizedText, 0, len(doctors))
	for _, d := range doctors {
		if _, dup := seen[d.Specialty.En]; dup {
			continue
		}
		seen[d.Specialty.En] = struct{}{}
		out = append(out, d.Specialty)
	}
	return out, nil
}

// GetDoctor retrieves a single doctor
func (s *DirectoryService) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	return s.catalog.DoctorByID(ctx, id)
}

// ListHospitals returns hospitals, optionally only those with status
func (s *DirectoryService) ListHospitals(ctx context.Context, status entities.HospitalStatus, userPos *geo.Coordinate) ([]RankedHospital, error) {
	hospitals, err := s.catalog.Hospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hospitals: %w", err)
	}

	out := make([]RankedHospital, 0, len(hospitals))
	for _, h := range hospitals {
		if status != "" && h.Status != status {
			continue
		}
		out = append(out, RankedHospital{Hospital: h, DistanceKm: geo.DistanceFrom(userPos, h.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// ListLabs returns every lab, nearest first
func (s *DirectoryService) ListLabs(ctx context.Context, userPos *geo.Coordinate) ([]RankedLab, error) {
	labs, err := s.catalog.Labs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labs: %w", err)
	}

	out := make([]RankedLab, 0, len(labs))
	for _, l := range labs {
		out = append(out, RankedLab{Lab: l, DistanceKm: geo.DistanceFrom(userPos, l.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// ListPharmacies returns every pharmacy, nearest first
func (s *DirectoryService) ListPharmacies(ctx context.Context, userPos *geo.Coordinate) ([]RankedPharmacy, error) {
	pharmacies, err := s.catalog.Pharmacies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pharmacies: %w", err)
	}

	out := make([]RankedPharmacy, 0, len(pharmacies))
	for _, p := range pharmacies {
		out = append(out, RankedPharmacy{Pharmacy: p, DistanceKm: geo.DistanceFrom(userPos, p.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// ListDonations returns donation offers, optionally of one category
func (s *DirectoryService) ListDonations(ctx context.Context, category entities.DonationCategory, userPos *geo.Coordinate) ([]RankedDonation, error) {
	offers, err := s.catalog.DonationOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load donation offers: %w", err)
	}

	out := make([]RankedDonation, 0, len(offers))
	for _, o := range offers {
		if category != "" && o.Category != category {
			continue
		}
		out = append(out, RankedDonation{Offer: o, DistanceKm: geo.DistanceFrom(userPos, o.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
