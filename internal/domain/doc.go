// Package domain resolves where orienteering events took place and indexes
// them by district and by map.
//
// # Data Source
//
// Events come from the ORIS registry of the Czech Orienteering Federation.
// Each event may carry GPS coordinates (as numeric strings, "0" meaning
// unknown), an organizer-entered place name, and a parent event ID. Parent
// links are used by multi-stage competitions: the individual stages often
// omit location data that the umbrella event has.
//
// # Location Fallback
//
// An event's location is taken from the first usable source:
//
//	1. Coordinates of the event or its nearest ancestor  → reverse geocode
//	2. The event's own place name                          → text search
//	3. The nearest ancestor's place name                   → text search
//
// At most one geocoding call is made per event. Parent chains are walked
// iteratively with a visited set, so a circular ParentID ends the walk.
//
// # Nominatim Address Conventions (Czech Republic)
//
//	municipality   "okres Beroun"          district, prefixed with "okres "
//	city           "Hlavní město Praha"    Prague has no municipality
//	city_district  "obvod Praha 5"         Prague district, prefixed with "obvod "
//	village, town  settlement name
//
// The region is the district with its prefix stripped; for Prague it is the
// city district. The place is the organizer's text, or the village/town.
//
// # Ordering
//
// Events are numbered 1..N in source order once per run ([NumberEvents]).
// Index keys are ordered with a locale [Collator] ("ch" sorts after "h" in
// Czech), and numbers within a bucket ascend.
package domain
