package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/repositories"
	"github.com/zatekoja/careroute/pkg/geo"
)

// MaxMatches caps every shortlist produced by the MatchEngine
const MaxMatches = 3

// TermMatcher decides whether a catalog term (a specialty label, a lab test
// name) matches a free-text term produced by the classifier.
type TermMatcher func(catalogTerm, query string) bool

// FuzzyContainment matches when either term contains the other, ignoring
// case, so "Cardiology" finds "Pediatric Cardiology" and "Cardio" finds
// "Cardiology". Word forms that share only a stem, such as "Cardiologist"
// and "Cardiology", do not match. False positives such as "Ear" in
// "Hearing" are accepted.
func FuzzyContainment(catalogTerm, query string) bool {
	c := strings.ToLower(catalogTerm)
	q := strings.ToLower(query)
	return strings.Contains(c, q) || strings.Contains(q, c)
}

// Containment matches when the catalog term contains the query, ignoring case
func Containment(catalogTerm, query string) bool {
	return strings.Contains(strings.ToLower(catalogTerm), strings.ToLower(query))
}

// RankedDoctor is a doctor with its distance from the user
type RankedDoctor struct {
	Doctor     *entities.Doctor
	DistanceKm float64
}

// RankedHospital is a hospital with its distance from the user
type RankedHospital struct {
	Hospital   *entities.Hospital
	DistanceKm float64
}

// RankedLab is a lab with its distance from the user
type RankedLab struct {
	Lab        *entities.Lab
	DistanceKm float64
}

// Recommendation bundles the three shortlists for one classification
type Recommendation struct {
	Doctors   []RankedDoctor
	Hospitals []RankedHospital
	Labs      []RankedLab
}

// MatchEngine turns a classification result into ranked provider
// shortlists. The match functions are pure; Recommend adds catalog access.
type MatchEngine struct {
	catalog          repositories.CatalogRepository
	specialtyMatcher TermMatcher
	testMatcher      TermMatcher
}

// NewMatchEngine creates a match engine using the default matchers
func NewMatchEngine(catalog repositories.CatalogRepository) *MatchEngine {
	return &MatchEngine{
		catalog:          catalog,
		specialtyMatcher: FuzzyContainment,
		testMatcher:      Containment,
	}
}

// WithMatchers returns a copy of the engine using the given matchers.
// A nil matcher keeps the current one.
func (e *MatchEngine) WithMatchers(specialty, tests TermMatcher) *MatchEngine {
	clone := *e
	if specialty != nil {
		clone.specialtyMatcher = specialty
	}
	if tests != nil {
		clone.testMatcher = tests
	}
	return &clone
}

// MatchDoctors returns up to MaxMatches doctors whose specialty matches,
// ordered by availability rank and then distance. Without a user position
// every distance is 0 and only availability orders the list.
func (e *MatchEngine) MatchDoctors(result *entities.ClassificationResult, doctors []*entities.Doctor, userPos *geo.Coordinate) []RankedDoctor {
	out := make([]RankedDoctor, 0, MaxMatches)
	if result == nil {
		return out
	}

	for _, d := range doctors {
		if d == nil || !e.specialtyMatches(d, result.Specialty) {
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

	return truncate(out)
}

// MatchHospitals returns up to MaxMatches hospitals that are not
// unavailable, nearest first. High severity additionally requires an
// ambulance.
func (e *MatchEngine) MatchHospitals(result *entities.ClassificationResult, hospitals []*entities.Hospital, userPos *geo.Coordinate) []RankedHospital {
	out := make([]RankedHospital, 0, MaxMatches)
	if result == nil {
		return out
	}

	needAmbulance := result.Severity == entities.SeverityHigh
	for _, h := range hospitals {
		if h == nil || h.Status == entities.HospitalStatusUnavailable {
			continue
		}
		if needAmbulance && !h.Ambulance {
			continue
		}
		out = append(out, RankedHospital{Hospital: h, DistanceKm: geo.DistanceFrom(userPos, h.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})

	return truncate(out)
}

// MatchLabs returns up to MaxMatches labs offering any suggested test,
// nearest first. No suggested tests means no labs.
func (e *MatchEngine) MatchLabs(result *entities.ClassificationResult, labs []*entities.Lab, userPos *geo.Coordinate) []RankedLab {
	out := make([]RankedLab, 0, MaxMatches)
	if result == nil || len(result.SuggestedTests) == 0 {
		return out
	}

	for _, l := range labs {
		if l == nil || !e.offersAny(l, result.SuggestedTests) {
			continue
		}
		out = append(out, RankedLab{Lab: l, DistanceKm: geo.DistanceFrom(userPos, l.Location)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})

	return truncate(out)
}

// specialtyMatches checks both language variants so an Arabic
// classification still finds doctors. Empty labels never match.
func (e *MatchEngine) specialtyMatches(d *entities.Doctor, specialty string) bool {
	for _, label := range []string{d.Specialty.En, d.Specialty.Ar} {
		if label != "" && e.specialtyMatcher(label, specialty) {
			return true
		}
	}
	return false
}

func (e *MatchEngine) offersAny(l *entities.Lab, suggested []string) bool {
	for _, offered := range [][]string{l.Tests, l.TestsAr} {
		for _, name := range offered {
			if name == "" {
				continue
			}
			for _, want := range suggested {
				if want != "" && e.testMatcher(name, want) {
					return true
				}
			}
		}
	}
	return false
}

// Recommend runs all three matches against the catalog
func (e *MatchEngine) Recommend(ctx context.Context, result *entities.ClassificationResult, userPos *geo.Coordinate) (*Recommendation, error) {
	doctors, err := e.catalog.Doctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctors: %w", err)
	}
	hospitals, err := e.catalog.Hospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hospitals: %w", err)
	}
	labs, err := e.catalog.Labs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labs: %w", err)
	}

	return &Recommendation{
		Doctors:   e.MatchDoctors(result, doctors, userPos),
		Hospitals: e.MatchHospitals(result, hospitals, userPos),
		Labs:      e.MatchLabs(result, labs, userPos),
	}, nil
}

func truncate[T any](s []T) []T {
	if len(s) > MaxMatches {
		return s[:MaxMatches]
	}
	return s
}
