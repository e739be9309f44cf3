package domain

// Hierarchy is a read-only parent lookup over one run's events.
type Hierarchy struct {
	byID map[int]Event
}

// NewHierarchy indexes events by ID. If an ID repeats, the first event wins.
func NewHierarchy(events []Event) *Hierarchy {
	byID := make(map[int]Event, len(events))
	for _, e := range events {
		if _, ok := byID[e.ID]; !ok {
			byID[e.ID] = e
		}
	}
	return &Hierarchy{byID: byID}
}

// Parent returns the event's parent. A missing, dangling, or self-referencing
// ParentID is not an error; it just ends the chain.
func (h *Hierarchy) Parent(e Event) (Event, bool) {
	if h == nil || e.ParentID == 0 || e.ParentID == e.ID {
		return Event{}, false
	}
	p, ok := h.byID[e.ParentID]
	return p, ok
}

// Ancestry returns e followed by its ancestors, nearest first. The walk stops
// at the first repeated ID; cyclic reports whether that happened.
func (h *Hierarchy) Ancestry(e Event) (chain []Event, cyclic bool) {
	visited := map[int]struct{}{}
	for cur, ok := e, true; ok; cur, ok = h.Parent(cur) {
		if _, seen := visited[cur.ID]; seen {
			return chain, true
		}
		visited[cur.ID] = struct{}{}
		chain = append(chain, cur)
	}
	return chain, false
}
