package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/pkg/geo"
)

//go:embed seed/catalog.yaml
var defaultCatalog []byte

// Catalog is the full provider directory as stored on disk
type Catalog struct {
	Doctors    []*entities.Doctor        `yaml:"doctors"`
	Hospitals  []*entities.Hospital      `yaml:"hospitals"`
	Labs       []*entities.Lab           `yaml:"labs"`
	Pharmacies []*entities.Pharmacy      `yaml:"pharmacies"`
	Donations  []*entities.DonationOffer `yaml:"donations"`
}

// Load parses and validates a YAML catalog document.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Load(data)
}

// LoadDefault returns the catalog compiled into the binary.
func LoadDefault() (*Catalog, error) {
	return Load(defaultCatalog)
}

// Validate checks ids, enums and coordinates of every record.
func Validate(c *Catalog) error {
	ids := newIDSet()

	for i, d := range c.Doctors {
		if d == nil {
			return fmt.Errorf("doctor at index %d: empty record", i)
		}
		if err := ids.add("doctor", i, d.ID); err != nil {
			return err
		}
		if d.Name.En == "" || d.Specialty.En == "" {
			return fmt.Errorf("doctor %q: missing name or specialty", d.ID)
		}
		switch d.Availability {
		case entities.AvailabilityAvailable, entities.AvailabilityBusy, entities.AvailabilityOffline:
		default:
			return fmt.Errorf("doctor %q: invalid availability %q", d.ID, d.Availability)
		}
		if err := validateCoordinate(d.Location); err != nil {
			return fmt.Errorf("doctor %q: %w", d.ID, err)
		}
	}

	for i, h := range c.Hospitals {
		if h == nil {
			return fmt.Errorf("hospital at index %d: empty record", i)
		}
		if err := ids.add("hospital", i, h.ID); err != nil {
			return err
		}
		if !h.Status.IsValid() {
			return fmt.Errorf("hospital %q: invalid status %q", h.ID, h.Status)
		}
		if err := validateCoordinate(h.Location); err != nil {
			return fmt.Errorf("hospital %q: %w", h.ID, err)
		}
	}

	for i, l := range c.Labs {
		if l == nil {
			return fmt.Errorf("lab at index %d: empty record", i)
		}
		if err := ids.add("lab", i, l.ID); err != nil {
			return err
		}
		if err := validateCoordinate(l.Location); err != nil {
			return fmt.Errorf("lab %q: %w", l.ID, err)
		}
	}

	for i, p := range c.Pharmacies {
		if p == nil {
			return fmt.Errorf("pharmacy at index %d: empty record", i)
		}
		if err := ids.add("pharmacy", i, p.ID); err != nil {
			return err
		}
		if err := validateCoordinate(p.Location); err != nil {
			return fmt.Errorf("pharmacy %q: %w", p.ID, err)
		}
	}

	for i, o := range c.Donations {
		if o == nil {
			return fmt.Errorf("donation at index %d: empty record", i)
		}
		if err := ids.add("donation", i, o.ID); err != nil {
			return err
		}
		if !o.Category.IsValid() {
			return fmt.Errorf("donation %q: invalid category %q", o.ID, o.Category)
		}
		if err := validateCoordinate(o.Location); err != nil {
			return fmt.Errorf("donation %q: %w", o.ID, err)
		}
	}

	return nil
}

type idSet map[string]struct{}

func newIDSet() idSet {
	return make(idSet)
}

// add records id under kind; ids only need to be unique within a kind
func (s idSet) add(kind string, index int, id string) error {
	if id == "" {
		return fmt.Errorf("%s at index %d: missing id", kind, index)
	}
	key := kind + "/" + id
	if _, dup := s[key]; dup {
		return fmt.Errorf("%s at index %d: duplicate id %q", kind, index, id)
	}
	s[key] = struct{}{}
	return nil
}

func validateCoordinate(c geo.Coordinate) error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("invalid latitude %v", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("invalid longitude %v", c.Longitude)
	}
	return nil
}
