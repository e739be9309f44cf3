package domain

import (
	"strconv"
	"strings"
	"time"
)

// Event is a single competition as supplied by the event source. The core
// never mutates events; it only reads them.
type Event struct {
	ID         int       `json:"id"`
	ParentID   int       `json:"parent_id,omitempty"` // 0 when the event has no parent
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	Place      string    `json:"place,omitempty"` // organizer-entered free text
	Map        string    `json:"map,omitempty"`
	Discipline string    `json:"discipline,omitempty"`
	Lat        string    `json:"lat,omitempty"` // numeric string, "0" or "" when unknown
	Lon        string    `json:"lon,omitempty"`
}

// Coordinates returns the event's own latitude and longitude. ok is false
// when either value is missing, unparsable, or zero.
func (e Event) Coordinates() (lat, lon float64, ok bool) {
	lat = parseFloatOrZero(e.Lat)
	lon = parseFloatOrZero(e.Lon)
	if lat == 0 || lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}

// HasPlace reports whether the organizer filled in a place name.
func (e Event) HasPlace() bool {
	return strings.TrimSpace(e.Place) != ""
}

// Address is the subset of a geocoding result the classifier needs.
// Empty fields mean the provider did not return them.
type Address struct {
	Municipality string `json:"municipality,omitempty"`
	CityDistrict string `json:"city_district,omitempty"`
	City         string `json:"city,omitempty"`
	Village      string `json:"village,omitempty"`
	Town         string `json:"town,omitempty"`
}

// Resolution is the derived location of one numbered event.
type Resolution struct {
	Event   Event    `json:"event"`
	Number  int      `json:"number"`
	Address *Address `json:"address,omitempty"`
	Region  string   `json:"region"`
	Place   string   `json:"place"`
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
