package handlers

import (
	"math"
	"strings"

	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/pkg/geo"
)

const directionsBaseURL = "https://www.google.com/maps/dir/?api=1&destination="

// phoneURI turns a display phone number into a dialable tel: URI
func phoneURI(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "tel:" + b.String()
}

// directionsURL links to turn-by-turn directions to c
func directionsURL(c geo.Coordinate) string {
	return directionsBaseURL + c.String()
}

// roundKm keeps one decimal like the listing cards
func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

// ProviderLinks are the display and contact fields shared by every listing
type ProviderLinks struct {
	DisplayName   string  `json:"display_name"`
	DistanceKm    float64 `json:"distance_km"`
	PhoneURI      string  `json:"phone_uri"`
	DirectionsURL string  `json:"directions_url"`
}

func newLinks(name entities.LocalizedText, lang entities.Language, phone string, loc geo.Coordinate, km float64) ProviderLinks {
	return ProviderLinks{
		DisplayName:   name.In(lang),
		DistanceKm:    roundKm(km),
		PhoneURI:      phoneURI(phone),
		DirectionsURL: directionsURL(loc),
	}
}

// DoctorListing is a doctor as shown in lists
type DoctorListing struct {
	*entities.Doctor
	ProviderLinks
	DisplaySpecialty string `json:"display_specialty"`
	DisplayClinic    string `json:"display_clinic"`
}

// HospitalListing is a hospital as shown in lists
type HospitalListing struct {
	*entities.Hospital
	ProviderLinks
	DisplayAddress string `json:"display_address"`
}

// LabListing is a lab as shown in lists
type LabListing struct {
	*entities.Lab
	ProviderLinks
	DisplayAddress string   `json:"display_address"`
	DisplayTests   []string `json:"display_tests"`
}

// PharmacyListing is a pharmacy as shown in lists
type PharmacyListing struct {
	*entities.Pharmacy
	ProviderLinks
	DisplayAddress string `json:"display_address"`
}

// DonationListing is a donation offer as shown in lists
type DonationListing struct {
	*entities.DonationOffer
	ProviderLinks
	DisplayArea string `json:"display_area"`
}

func doctorListings(in []services.RankedDoctor, lang entities.Language) []DoctorListing {
	out := make([]DoctorListing, 0, len(in))
	for _, r := range in {
		out = append(out, doctorListing(r.Doctor, r.DistanceKm, lang))
	}
	return out
}

func doctorListing(d *entities.Doctor, km float64, lang entities.Language) DoctorListing {
	return DoctorListing{
		Doctor:           d,
		ProviderLinks:    newLinks(d.Name, lang, d.Phone, d.Location, km),
		DisplaySpecialty: d.Specialty.In(lang),
		DisplayClinic:    d.Clinic.In(lang),
	}
}

func hospitalListings(in []services.RankedHospital, lang entities.Language) []HospitalListing {
	out := make([]HospitalListing, 0, len(in))
	for _, r := range in {
		h := r.Hospital
		out = append(out, HospitalListing{
			Hospital:       h,
			ProviderLinks:  newLinks(h.Name, lang, h.Phone, h.Location, r.DistanceKm),
			DisplayAddress: h.Address.In(lang),
		})
	}
	return out
}

func labListings(in []services.RankedLab, lang entities.Language) []LabListing {
	out := make([]LabListing, 0, len(in))
	for _, r := range in {
		l := r.Lab
		out = append(out, LabListing{
			Lab:            l,
			ProviderLinks:  newLinks(l.Name, lang, l.Phone, l.Location, r.DistanceKm),
			DisplayAddress: l.Address.In(lang),
			DisplayTests:   l.TestsIn(lang),
		})
	}
	return out
}

func pharmacyListings(in []services.RankedPharmacy, lang entities.Language) []PharmacyListing {
	out := make([]PharmacyListing, 0, len(in))
	for _, r := range in {
		p := r.Pharmacy
		out = append(out, PharmacyListing{
			Pharmacy:       p,
			ProviderLinks:  newLinks(p.Name, lang, p.Phone, p.Location, r.DistanceKm),
			DisplayAddress: p.Address.In(lang),
		})
	}
	return out
}

func donationListings(in []services.RankedDonation, lang entities.Language) []DonationListing {
	out := make([]DonationListing, 0, len(in))
	for _, r := range in {
		o := r.Offer
		out = append(out, DonationListing{
			DonationOffer: o,
			ProviderLinks: newLinks(entities.LocalizedText{En: o.DonorName}, lang, o.Phone, o.Location, r.DistanceKm),
			DisplayArea:   o.Area.In(lang),
		})
	}
	return out
}
