package occupancy

import (
	"fmt"
	"sort"
)

// Entry is one row of a SpotMap.
type Entry struct {
	Geometry
	Label  string
	Mapped bool // false when no persisted spot lines up with this geometry
}

// SpotMap binds geometry indices to persisted spot labels.  It is built
// once at startup and never modified; pass it to whatever needs it.
type SpotMap struct {
	entries []Entry
	labels  int
}

// BuildSpotMap sorts labels ascending and zips them with geoms by index.
// Geometry indices without a label get the placeholder SPOT<i> and are
// marked unmapped; labels without a geometry are dropped.  Exactly
// min(len(geoms), len(labels)) entries end up mapped.
func BuildSpotMap(geoms []Geometry, labels []string) SpotMap {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)

	entries := make([]Entry, len(geoms))
	for i, g := range geoms {
		e := Entry{Geometry: g}
		if i < len(sorted) {
			e.Label = sorted[i]
			e.Mapped = true
		} else {
			e.Label = fmt.Sprintf("SPOT%d", i)
		}
		entries[i] = e
	}
	return SpotMap{entries: entries, labels: len(labels)}
}

// Len is the number of geometry rectangles.
func (m SpotMap) Len() int { return len(m.entries) }

// At returns the entry for geometry index i.
func (m SpotMap) At(i int) Entry { return m.entries[i] }

// Entries returns a copy of the table.
func (m SpotMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Geometries returns the rectangles in index order.
func (m SpotMap) Geometries() []Geometry {
	out := make([]Geometry, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Geometry
	}
	return out
}

// MappedCount is the number of entries bound to a persisted spot.
func (m SpotMap) MappedCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Mapped {
			n++
		}
	}
	return n
}

// Mismatch describes a geometry/label count difference, or returns "" when
// the two sides line up.
func (m SpotMap) Mismatch() string {
	if len(m.entries) == m.labels {
		return ""
	}
	return fmt.Sprintf("%d geometry rectangles but %d persisted spots; %d mapped", len(m.entries), m.labels, m.MappedCount())
}
