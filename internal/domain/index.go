package domain

import (
	"sort"
	"strings"
)

// Default sentinel labels used in place of missing index keys.
const (
	DefaultUnknownRegion = "unknown region"
	DefaultUnknownPlace  = "unknown place"
	DefaultUnknownMap    = "unknown map"
)

// Collator orders index keys. Compare returns a negative number when a sorts
// before b, zero when they are equal, and a positive number otherwise.
type Collator interface {
	Compare(a, b string) int
}

// ByteCollator orders strings by their bytes. It is the fallback when no
// locale collation is configured.
type ByteCollator struct{}

// Compare orders a and b bytewise.
func (ByteCollator) Compare(a, b string) int { return strings.Compare(a, b) }

// Numbering maps event IDs to their 1-based position in the run.
type Numbering struct {
	byID  map[int]int
	order []int
}

// NumberEvents numbers events in the order given. A repeated ID keeps the
// number of its first occurrence.
func NumberEvents(events []Event) Numbering {
	n := Numbering{byID: make(map[int]int, len(events))}
	for _, e := range events {
		if _, ok := n.byID[e.ID]; ok {
			continue
		}
		n.order = append(n.order, e.ID)
		n.byID[e.ID] = len(n.order)
	}
	return n
}

// Number returns the event's number, or false if it was not numbered.
func (n Numbering) Number(eventID int) (int, bool) {
	num, ok := n.byID[eventID]
	return num, ok
}

// Len returns how many events were numbered.
func (n Numbering) Len() int { return len(n.order) }

// EventID returns the ID of the event with the given number.
func (n Numbering) EventID(number int) (int, bool) {
	if number < 1 || number > len(n.order) {
		return 0, false
	}
	return n.order[number-1], true
}

// Bucket is the innermost index level: the numbers of events sharing both keys.
type Bucket struct {
	Key     string `json:"key"`
	Numbers []int  `json:"numbers"`
}

// Group is the outer index level.
type Group struct {
	Key     string   `json:"key"`
	Buckets []Bucket `json:"buckets"`
}

// Index is a two-level, fully ordered index of event numbers.
type Index struct {
	Groups []Group `json:"groups"`
}

// Lookup returns the numbers filed under (outer, inner).
func (idx Index) Lookup(outer, inner string) ([]int, bool) {
	for _, g := range idx.Groups {
		if g.Key != outer {
			continue
		}
		for _, b := range g.Buckets {
			if b.Key == inner {
				return b.Numbers, true
			}
		}
	}
	return nil, false
}

// Labels are the sentinel keys substituted for missing values.
type Labels struct {
	UnknownRegion string
	UnknownPlace  string
	UnknownMap    string
}

// DefaultLabels returns the built-in sentinel labels.
func DefaultLabels() Labels {
	return Labels{
		UnknownRegion: DefaultUnknownRegion,
		UnknownPlace:  DefaultUnknownPlace,
		UnknownMap:    DefaultUnknownMap,
	}
}

// IndexBuilder builds region and map indexes from resolved events.
type IndexBuilder struct {
	collator Collator
	labels   Labels
}

// NewIndexBuilder creates an IndexBuilder. A nil collator falls back to
// byte ordering; empty labels fall back to the defaults.
func NewIndexBuilder(collator Collator, labels Labels) *IndexBuilder {
	if collator == nil {
		collator = ByteCollator{}
	}
	def := DefaultLabels()
	if labels.UnknownRegion == "" {
		labels.UnknownRegion = def.UnknownRegion
	}
	if labels.UnknownPlace == "" {
		labels.UnknownPlace = def.UnknownPlace
	}
	if labels.UnknownMap == "" {
		labels.UnknownMap = def.UnknownMap
	}
	return &IndexBuilder{collator: collator, labels: labels}
}

// RegionIndex groups events by region, then by place.
func (b *IndexBuilder) RegionIndex(resolutions []Resolution) Index {
	return b.build(resolutions,
		func(r Resolution) string { return orDefault(r.Region, b.labels.UnknownRegion) },
		func(r Resolution) string { return orDefault(r.Place, b.labels.UnknownPlace) },
	)
}

// MapIndex groups events by map name, then by place.
func (b *IndexBuilder) MapIndex(resolutions []Resolution) Index {
	return b.build(resolutions,
		func(r Resolution) string { return orDefault(r.Event.Map, b.labels.UnknownMap) },
		func(r Resolution) string { return orDefault(r.Place, b.labels.UnknownPlace) },
	)
}

func (b *IndexBuilder) build(resolutions []Resolution, outerKey, innerKey func(Resolution) string) Index {
	grouped := map[string]map[string][]int{}
	for _, r := range resolutions {
		outer, inner := outerKey(r), innerKey(r)
		if grouped[outer] == nil {
			grouped[outer] = map[string][]int{}
		}
		grouped[outer][inner] = append(grouped[outer][inner], r.Number)
	}

	idx := Index{Groups: make([]Group, 0, len(grouped))}
	for _, outer := range sortedKeys(b.collator, grouped) {
		buckets := grouped[outer]
		g := Group{Key: outer, Buckets: make([]Bucket, 0, len(buckets))}
		for _, inner := range sortedKeys(b.collator, buckets) {
			numbers := append([]int(nil), buckets[inner]...)
			sort.Ints(numbers)
			g.Buckets = append(g.Buckets, Bucket{Key: inner, Numbers: numbers})
		}
		idx.Groups = append(idx.Groups, g)
	}
	return idx
}

// sortedKeys orders map keys with the collator, breaking ties by bytes so the
// order is total.
func sortedKeys[V any](collator Collator, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := collator.Compare(keys[i], keys[j]); c != 0 {
			return c < 0
		}
		return keys[i] < keys[j]
	})
	return keys
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
