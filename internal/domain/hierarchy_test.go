package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventIDs(events []Event) []int {
	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func TestHierarchy_Parent(t *testing.T) {
	root := Event{ID: 1, Name: "Pražský pohár"}
	stage := Event{ID: 2, ParentID: 1, Name: "E1"}
	orphan := Event{ID: 3, ParentID: 42}
	self := Event{ID: 4, ParentID: 4}

	h := NewHierarchy([]Event{root, stage, orphan, self})

	p, ok := h.Parent(stage)
	require.True(t, ok)
	assert.Equal(t, "Pražský pohár", p.Name)

	_, ok = h.Parent(root)
	assert.False(t, ok, "no parent")

	_, ok = h.Parent(orphan)
	assert.False(t, ok, "dangling parent")

	_, ok = h.Parent(self)
	assert.False(t, ok, "self reference")
}

func TestHierarchy_NilIsEmpty(t *testing.T) {
	var h *Hierarchy
	_, ok := h.Parent(Event{ID: 2, ParentID: 1})
	assert.False(t, ok)
}

func TestHierarchy_DuplicateIDFirstWins(t *testing.T) {
	h := NewHierarchy([]Event{{ID: 1, Name: "first"}, {ID: 1, Name: "second"}})

	p, ok := h.Parent(Event{ID: 2, ParentID: 1})
	require.True(t, ok)
	assert.Equal(t, "first", p.Name)
}

func TestHierarchy_Ancestry(t *testing.T) {
	tests := []struct {
		name       string
		events     []Event
		start      int
		wantIDs    []int
		wantCyclic bool
	}{
		{
			name:    "single",
			events:  []Event{{ID: 1}},
			start:   1,
			wantIDs: []int{1},
		},
		{
			name:    "three levels",
			events:  []Event{{ID: 1}, {ID: 2, ParentID: 1}, {ID: 3, ParentID: 2}},
			start:   3,
			wantIDs: []int{3, 2, 1},
		},
		{
			name:       "two cycle",
			events:     []Event{{ID: 1, ParentID: 2}, {ID: 2, ParentID: 1}},
			start:      1,
			wantIDs:    []int{1, 2},
			wantCyclic: true,
		},
		{
			name:       "cycle above start",
			events:     []Event{{ID: 1, ParentID: 2}, {ID: 2, ParentID: 3}, {ID: 3, ParentID: 2}},
			start:      1,
			wantIDs:    []int{1, 2, 3},
			wantCyclic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHierarchy(tt.events)
			var start Event
			for _, e := range tt.events {
				if e.ID == tt.start {
					start = e
				}
			}

			chain, cyclic := h.Ancestry(start)

			assert.Equal(t, tt.wantIDs, eventIDs(chain))
			assert.Equal(t, tt.wantCyclic, cyclic)
		})
	}
}

func TestEvent_Coordinates(t *testing.T) {
	tests := []struct {
		name   string
		lat    string
		lon    string
		wantOK bool
	}{
		{"valid", "49.95", "14.07", true},
		{"padded", " 49.95 ", "14.07 ", true},
		{"negative", "-33.9", "18.4", true},
		{"zero", "0", "0", false},
		{"zero float", "0.000", "14.07", false},
		{"missing", "", "", false},
		{"garbage", "N49", "E14", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := Event{Lat: tt.lat, Lon: tt.lon}.Coordinates()
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
