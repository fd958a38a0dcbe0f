package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Category groups services and doctor specialties.
type Category string

const (
	CategoryGeneral      Category = "General Dentistry"
	CategoryCosmetic     Category = "Cosmetic Dentistry"
	CategoryOrthodontics Category = "Orthodontics"
	CategoryPediatric    Category = "Pediatric Dentistry"
	CategorySurgery      Category = "Oral Surgery"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryCosmetic,
	CategoryOrthodontics,
	CategoryPediatric,
	CategorySurgery,
}

var categoryCodes = map[string]Category{
	"GENERAL":      CategoryGeneral,
	"COSMETIC":     CategoryCosmetic,
	"ORTHODONTICS": CategoryOrthodontics,
	"PEDIATRIC":    CategoryPediatric,
	"SURGERY":      CategorySurgery,
}

// ErrUnknownCategory is returned when a category code or name is not recognised.
var ErrUnknownCategory = errors.New("catalog: unknown category")

// ParseCategory accepts either the short code (GENERAL) or the display name.
func ParseCategory(raw string) (Category, error) {
	raw = strings.TrimSpace(raw)
	if c, ok := categoryCodes[strings.ToUpper(raw)]; ok {
		return c, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(string(c), raw) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Service is a bookable treatment.
type Service struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	PriceStart  float64  `json:"priceStart" yaml:"price_start"`
	DurationMin int      `json:"durationMin" yaml:"duration_min"`
	IconName    string   `json:"iconName,omitempty" yaml:"icon_name"`
}

// Doctor is a practitioner who can be booked for services in their specialties.
type Doctor struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Title           string     `json:"title" yaml:"title"`
	Specialties     []Category `json:"specialties" yaml:"specialties"`
	Bio             string     `json:"bio" yaml:"bio"`
	ImageURL        string     `json:"imageUrl" yaml:"image_url"`
	YearsExperience int        `json:"yearsExperience" yaml:"years_experience"`
}

// Treats reports whether the doctor lists c among their specialties.
func (d Doctor) Treats(c Category) bool {
	for _, s := range d.Specialties {
		if s == c {
			return true
		}
	}
	return false
}

// ClinicInfo is the contact block shown on the site.
type ClinicInfo struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	Phone   string `json:"phone" yaml:"phone"`
	Email   string `json:"email" yaml:"email"`
	Hours   string `json:"hours" yaml:"hours"`
}

// CategoryGroup is a category with the services offered in it.
type CategoryGroup struct {
	Category Category  `json:"category"`
	Services []Service `json:"services"`
}

// Catalog is the read-only reference data loaded at startup.
// It must not be mutated after Validate succeeds.
type Catalog struct {
	Services  []Service  `json:"services" yaml:"services"`
	Doctors   []Doctor   `json:"doctors" yaml:"doctors"`
	TimeSlots []string   `json:"timeSlots" yaml:"time_slots"`
	Clinic    ClinicInfo `json:"clinic" yaml:"clinic"`

	servicesByID map[string]Service
	doctorsByID  map[string]Doctor
	slots        map[string]struct{}
}

var slotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks invariants and builds lookup indexes.
func (c *Catalog) Validate() error {
	var problems []error
	c.servicesByID = make(map[string]Service, len(c.Services))
	for _, s := range c.Services {
		switch {
		case strings.TrimSpace(s.ID) == "":
			problems = append(problems, errors.New("service with empty id"))
			continue
		case !s.Category.Valid():
			problems = append(problems, fmt.Errorf("service %s: unknown category %q", s.ID, s.Category))
		case s.PriceStart < 0:
			problems = append(problems, fmt.Errorf("service %s: negative price", s.ID))
		case s.DurationMin <= 0:
			problems = append(problems, fmt.Errorf("service %s: duration must be positive", s.ID))
		}
		if _, dup := c.servicesByID[s.ID]; dup {
			problems = append(problems, fmt.Errorf("service %s: duplicate id", s.ID))
		}
		c.servicesByID[s.ID] = s
	}

	c.doctorsByID = make(map[string]Doctor, len(c.Doctors))
	for _, d := range c.Doctors {
		if strings.TrimSpace(d.ID) == "" {
			problems = append(problems, errors.New("doctor with empty id"))
			continue
		}
		if len(d.Specialties) == 0 {
			problems = append(problems, fmt.Errorf("doctor %s: no specialties", d.ID))
		}
		for _, s := range d.Specialties {
			if !s.Valid() {
				problems = append(problems, fmt.Errorf("doctor %s: unknown specialty %q", d.ID, s))
			}
		}
		if d.YearsExperience < 0 {
			problems = append(problems, fmt.Errorf("doctor %s: negative experience", d.ID))
		}
		if _, dup := c.doctorsByID[d.ID]; dup {
			problems = append(problems, fmt.Errorf("doctor %s: duplicate id", d.ID))
		}
		c.doctorsByID[d.ID] = d
	}

	c.slots = make(map[string]struct{}, len(c.TimeSlots))
	for _, slot := range c.TimeSlots {
		if !slotPattern.MatchString(slot) {
			problems = append(problems, fmt.Errorf("time slot %q: expected HH:MM", slot))
		}
		if _, dup := c.slots[slot]; dup {
			problems = append(problems, fmt.Errorf("time slot %q: duplicate", slot))
		}
		c.slots[slot] = struct{}{}
	}

	if len(problems) > 0 {
		return fmt.Errorf("catalog: invalid: %w", errors.Join(problems...))
	}
	return nil
}

// ServiceByID returns the service and whether it exists.
func (c *Catalog) ServiceByID(id string) (Service, bool) {
	s, ok := c.servicesByID[id]
	return s, ok
}

// DoctorByID returns the doctor and whether it exists.
func (c *Catalog) DoctorByID(id string) (Doctor, bool) {
	d, ok := c.doctorsByID[id]
	return d, ok
}

// IsTimeSlot reports whether t is one of the fixed bookable slots.
func (c *Catalog) IsTimeSlot(t string) bool {
	_, ok := c.slots[t]
	return ok
}

// ListServices returns a copy of all services in catalog order.
func (c *Catalog) ListServices() []Service {
	return append([]Service(nil), c.Services...)
}

// ListDoctors returns a copy of all doctors in catalog order.
func (c *Catalog) ListDoctors() []Doctor {
	out := make([]Doctor, len(c.Doctors))
	for i, d := range c.Doctors {
		d.Specialties = append([]Category(nil), d.Specialties...)
		out[i] = d
	}
	return out
}

// ListTimeSlots returns a copy of the fixed slot list.
func (c *Catalog) ListTimeSlots() []string {
	return append([]string(nil), c.TimeSlots...)
}

// ServicesIn returns the services offered under category.
func (c *Catalog) ServicesIn(category Category) []Service {
	var out []Service
	for _, s := range c.Services {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// DoctorsFor returns exactly the doctors whose specialties include category.
func (c *Catalog) DoctorsFor(category Category) []Doctor {
	var out []Doctor
	for _, d := range c.ListDoctors() {
		if d.Treats(category) {
			out = append(out, d)
		}
	}
	return out
}

// GroupedServices returns services grouped by category in display order.
// Categories without services are omitted.
func (c *Catalog) GroupedServices() []CategoryGroup {
	var groups []CategoryGroup
	for _, cat := range Categories {
		if services := c.ServicesIn(cat); len(services) > 0 {
			groups = append(groups, CategoryGroup{Category: cat, Services: services})
		}
	}
	return groups
}
