package entities

import (
	"github.com/zatekoja/careroute/pkg/geo"
)

// Language is a display language supported by the directory
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// IsValid reports whether the language is supported
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// LocalizedText carries the English and Arabic variants of a display field
type LocalizedText struct {
	En string `json:"en" yaml:"en"`
	Ar string `json:"ar" yaml:"ar"`
}

// In returns the text for lang, falling back to English when no Arabic
// variant exists.
func (t LocalizedText) In(lang Language) string {
	if lang == LanguageArabic && t.Ar != "" {
		return t.Ar
	}
	return t.En
}

// Availability is a doctor's current availability
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityOffline   Availability = "offline"
)

var availabilityRank = map[Availability]int{
	AvailabilityAvailable: 0,
	AvailabilityBusy:      1,
	AvailabilityOffline:   2,
}

// Rank orders availability: available < busy < offline. Unknown values
// rank with available.
func (a Availability) Rank() int {
	return availabilityRank[a]
}

// AcceptsBookings reports whether new bookings may be made
func (a Availability) AcceptsBookings() bool {
	return a != AvailabilityOffline
}

// HospitalStatus is the operational status of a hospital
type HospitalStatus string

const (
	HospitalStatusAvailable   HospitalStatus = "available"
	HospitalStatusBusy        HospitalStatus = "busy"
	HospitalStatusUnavailable HospitalStatus = "unavailable"
)

// IsValid reports whether the status is a known value
func (s HospitalStatus) IsValid() bool {
	switch s {
	case HospitalStatusAvailable, HospitalStatusBusy, HospitalStatusUnavailable:
		return true
	}
	return false
}

// DonationCategory is the kind of help a donation offer provides
type DonationCategory string

const (
	DonationCategoryAmbulance DonationCategory = "ambulance"
	DonationCategoryBlood     DonationCategory = "blood"
	DonationCategorySupplies  DonationCategory = "supplies"
)

// IsValid reports whether the category is a known value
func (c DonationCategory) IsValid() bool {
	switch c {
	case DonationCategoryAmbulance, DonationCategoryBlood, DonationCategorySupplies:
		return true
	}
	return false
}

// Doctor is a bookable physician listing
type Doctor struct {
	ID             string         `json:"id" yaml:"id"`
	Name           LocalizedText  `json:"name" yaml:"name"`
	Specialty      LocalizedText  `json:"specialty" yaml:"specialty"`
	Clinic         LocalizedText  `json:"clinic" yaml:"clinic"`
	Location       geo.Coordinate `json:"location" yaml:"location"`
	Phone          string         `json:"phone" yaml:"phone"`
	Availability   Availability   `json:"availability" yaml:"availability"`
	Rating         float64        `json:"rating" yaml:"rating"`
	Visits         int            `json:"visits" yaml:"visits"`
	AvailableDays  []string       `json:"available_days" yaml:"available_days"`
	AvailableSlots []string       `json:"available_slots" yaml:"available_slots"`
}

// HasSlot reports whether label is one of the doctor's bookable slots
func (d *Doctor) HasSlot(label string) bool {
	for _, slot := range d.AvailableSlots {
		if slot == label {
			return true
		}
	}
	return false
}

// Hospital is a hospital listing
type Hospital struct {
	ID        string         `json:"id" yaml:"id"`
	Name      LocalizedText  `json:"name" yaml:"name"`
	Address   LocalizedText  `json:"address" yaml:"address"`
	Location  geo.Coordinate `json:"location" yaml:"location"`
	Phone     string         `json:"phone" yaml:"phone"`
	Status    HospitalStatus `json:"status" yaml:"status"`
	Ambulance bool           `json:"ambulance" yaml:"ambulance"`
}

// Lab is a laboratory or radiology center listing
type Lab struct {
	ID       string         `json:"id" yaml:"id"`
	Name     LocalizedText  `json:"name" yaml:"name"`
	Address  LocalizedText  `json:"address" yaml:"address"`
	Location geo.Coordinate `json:"location" yaml:"location"`
	Phone    string         `json:"phone" yaml:"phone"`
	Tests    []string       `json:"available_tests" yaml:"available_tests"`
	TestsAr  []string       `json:"available_tests_ar" yaml:"available_tests_ar"`
}

// TestsIn returns the offered test names for lang
func (l *Lab) TestsIn(lang Language) []string {
	if lang == LanguageArabic && len(l.TestsAr) > 0 {
		return l.TestsAr
	}
	return l.Tests
}

// Pharmacy is a pharmacy listing
type Pharmacy struct {
	ID       string         `json:"id" yaml:"id"`
	Name     LocalizedText  `json:"name" yaml:"name"`
	Address  LocalizedText  `json:"address" yaml:"address"`
	Location geo.Coordinate `json:"location" yaml:"location"`
	Phone    string         `json:"phone" yaml:"phone"`
	IsOpen   bool           `json:"is_open" yaml:"is_open"`
}

// DonationOffer is a community offer of transport, blood or supplies
type DonationOffer struct {
	ID        string           `json:"id" yaml:"id"`
	DonorName string           `json:"donor_name" yaml:"donor_name"`
	Area      LocalizedText    `json:"area" yaml:"area"`
	Location  geo.Coordinate   `json:"location" yaml:"location"`
	Phone     string           `json:"phone" yaml:"phone"`
	Category  DonationCategory `json:"category" yaml:"category"`
}
