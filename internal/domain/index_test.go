package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// foldCollator ignores case, standing in for a locale collator.
type foldCollator struct{}

func (foldCollator) Compare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func res(number int, region, place string) Resolution {
	return Resolution{Event: Event{ID: 100 + number}, Number: number, Region: region, Place: place}
}

func TestNumberEvents(t *testing.T) {
	events := []Event{{ID: 30}, {ID: 10}, {ID: 20}, {ID: 10}}

	n := NumberEvents(events)

	assert.Equal(t, 3, n.Len())
	for id, want := range map[int]int{30: 1, 10: 2, 20: 3} {
		got, ok := n.Number(id)
		require.True(t, ok)
		assert.Equal(t, want, got, "event %d", id)
	}
	_, ok := n.Number(99)
	assert.False(t, ok)

	id, ok := n.EventID(3)
	require.True(t, ok)
	assert.Equal(t, 20, id)
	_, ok = n.EventID(0)
	assert.False(t, ok)
	_, ok = n.EventID(4)
	assert.False(t, ok)
}

func TestIndexBuilder_RegionIndex(t *testing.T) {
	resolutions := []Resolution{
		res(3, "Beroun", "Hořovice"),
		res(5, "", ""),
		res(2, "Beroun", "Zdice"),
		res(1, "Beroun", "Hořovice"),
		res(4, "", ""),
	}

	idx := NewIndexBuilder(nil, Labels{}).RegionIndex(resolutions)

	want := Index{Groups: []Group{
		{Key: "Beroun", Buckets: []Bucket{
			{Key: "Hořovice", Numbers: []int{1, 3}},
			{Key: "Zdice", Numbers: []int{2}},
		}},
		{Key: "unknown region", Buckets: []Bucket{
			{Key: "unknown place", Numbers: []int{4, 5}},
		}},
	}}
	if diff := cmp.Diff(want, idx); diff != "" {
		t.Fatalf("region index mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexBuilder_EveryNumberInExactlyOneBucket(t *testing.T) {
	resolutions := []Resolution{
		res(1, "Kladno", "Lány"),
		res(2, "Praha 5", ""),
		res(3, "", "Lány"),
		res(4, "Kladno", "Lány"),
		res(5, "Kladno", "Vinařice"),
		res(6, "Praha 5", ""),
	}

	idx := NewIndexBuilder(foldCollator{}, DefaultLabels()).RegionIndex(resolutions)

	seen := map[int]int{}
	for _, g := range idx.Groups {
		assert.NotEmpty(t, g.Key)
		for _, b := range g.Buckets {
			assert.NotEmpty(t, b.Key)
			for _, n := range b.Numbers {
				seen[n]++
			}
		}
	}
	assert.Len(t, seen, 6)
	for n, count := range seen {
		assert.Equal(t, 1, count, "number %d", n)
	}
}

func TestIndexBuilder_UsesCollator(t *testing.T) {
	resolutions := []Resolution{
		res(1, "zdice", "a"),
		res(2, "Beroun", "b"),
		res(3, "beroun", "c"),
		res(4, "Alpha", "d"),
	}

	byBytes := NewIndexBuilder(ByteCollator{}, DefaultLabels()).RegionIndex(resolutions)
	folded := NewIndexBuilder(foldCollator{}, DefaultLabels()).RegionIndex(resolutions)

	assert.Equal(t, []string{"Alpha", "Beroun", "beroun", "zdice"}, groupKeys(byBytes))
	// "Beroun" and "beroun" tie under the collator and fall back to bytes.
	assert.Equal(t, []string{"Alpha", "Beroun", "beroun", "zdice"}, groupKeys(folded))

	upper := []Resolution{res(1, "zdice", "a"), res(2, "Zbiroh", "b"), res(3, "alpha", "c")}
	assert.Equal(t, []string{"Zbiroh", "alpha", "zdice"}, groupKeys(NewIndexBuilder(ByteCollator{}, DefaultLabels()).RegionIndex(upper)))
	assert.Equal(t, []string{"alpha", "Zbiroh", "zdice"}, groupKeys(NewIndexBuilder(foldCollator{}, DefaultLabels()).RegionIndex(upper)))
}

func TestIndexBuilder_SentinelsSortByText(t *testing.T) {
	labels := Labels{UnknownRegion: "Neznámý okres", UnknownPlace: "Neznámé místo"}
	resolutions := []Resolution{res(1, "Zlín", "Zlín"), res(2, "", ""), res(3, "Beroun", "")}

	idx := NewIndexBuilder(foldCollator{}, labels).RegionIndex(resolutions)

	assert.Equal(t, []string{"Beroun", "Neznámý okres", "Zlín"}, groupKeys(idx))
	nums, ok := idx.Lookup("Beroun", "Neznámé místo")
	require.True(t, ok)
	assert.Equal(t, []int{3}, nums)
}

func TestIndexBuilder_MapIndex(t *testing.T) {
	resolutions := []Resolution{
		{Event: Event{ID: 1, Map: "Brdy"}, Number: 1, Place: "Hořovice"},
		{Event: Event{ID: 2, Map: "Brdy"}, Number: 2, Place: "Zdice"},
		{Event: Event{ID: 3}, Number: 3, Place: "Lány"},
		{Event: Event{ID: 4, Map: " Brdy "}, Number: 4, Place: "Hořovice"},
	}

	idx := NewIndexBuilder(nil, Labels{}).MapIndex(resolutions)

	want := Index{Groups: []Group{
		{Key: "Brdy", Buckets: []Bucket{
			{Key: "Hořovice", Numbers: []int{1, 4}},
			{Key: "Zdice", Numbers: []int{2}},
		}},
		{Key: "unknown map", Buckets: []Bucket{
			{Key: "Lány", Numbers: []int{3}},
		}},
	}}
	if diff := cmp.Diff(want, idx); diff != "" {
		t.Fatalf("map index mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexBuilder_Idempotent(t *testing.T) {
	resolutions := []Resolution{
		res(4, "Kladno", "Lány"),
		res(1, "Beroun", "Zdice"),
		res(3, "", ""),
		res(2, "Kladno", "Lány"),
		res(5, "Beroun", "Hořovice"),
	}
	b := NewIndexBuilder(foldCollator{}, DefaultLabels())

	first, err := json.Marshal(b.RegionIndex(resolutions))
	require.NoError(t, err)

	// Reversed input must not change the output.
	reversed := make([]Resolution, len(resolutions))
	for i, r := range resolutions {
		reversed[len(resolutions)-1-i] = r
	}
	for range 5 {
		again, err := json.Marshal(b.RegionIndex(reversed))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestIndexBuilder_Empty(t *testing.T) {
	idx := NewIndexBuilder(nil, Labels{}).RegionIndex(nil)
	assert.Empty(t, idx.Groups)

	_, ok := idx.Lookup("x", "y")
	assert.False(t, ok)
}

func groupKeys(idx Index) []string {
	keys := make([]string, len(idx.Groups))
	for i, g := range idx.Groups {
		keys[i] = g.Key
	}
	return keys
}
