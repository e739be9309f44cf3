package domain

import "strings"

// DefaultCapital is the Nominatim city name for Prague, which has city
// districts instead of a municipality.
const DefaultCapital = "Hlavní město Praha"

// DefaultDistrictPrefixes are the administrative markers Nominatim puts in
// front of Czech district names.
var DefaultDistrictPrefixes = []string{"okres", "obvod"}

// Classifier derives region and place labels from a resolved address.
type Classifier struct {
	capital  string
	prefixes []string
}

// NewClassifier creates a Classifier. Prefixes are matched as whole words
// followed by a space, so "okres" strips "okres Beroun" but not "okresní".
func NewClassifier(capital string, districtPrefixes []string) *Classifier {
	prefixes := make([]string, 0, len(districtPrefixes))
	for _, p := range districtPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p+" ")
		}
	}
	return &Classifier{capital: capital, prefixes: prefixes}
}

// Region returns the district label for an address, or "" when none applies.
func (c *Classifier) Region(addr *Address) string {
	if addr == nil {
		return ""
	}
	if m := strings.TrimSpace(addr.Municipality); m != "" {
		return c.stripPrefix(m)
	}
	if c.isCapital(addr) {
		return c.stripPrefix(strings.TrimSpace(addr.CityDistrict))
	}
	return ""
}

// PlaceName returns the settlement label for an event. The organizer's own
// place text wins; capital-city addresses have no place of their own; then
// village, then town. If still empty, the nearest ancestor with a place
// text supplies it. addr is the event's address and is reused as is for the
// ancestors.
func (c *Classifier) PlaceName(event Event, addr *Address, h *Hierarchy) string {
	if event.HasPlace() {
		return strings.TrimSpace(event.Place)
	}
	if addr != nil {
		if c.isCapital(addr) {
			return ""
		}
		if v := strings.TrimSpace(addr.Village); v != "" {
			return v
		}
		if t := strings.TrimSpace(addr.Town); t != "" {
			return t
		}
	}

	chain, _ := h.Ancestry(event)
	for _, e := range chain[1:] {
		if e.HasPlace() {
			return strings.TrimSpace(e.Place)
		}
	}
	return ""
}

func (c *Classifier) isCapital(addr *Address) bool {
	return c.capital != "" && strings.TrimSpace(addr.City) == c.capital
}

func (c *Classifier) stripPrefix(s string) string {
	for _, p := range c.prefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(strings.TrimPrefix(s, p))
		}
	}
	return s
}
