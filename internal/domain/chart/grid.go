package chart

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type cellKey struct {
	rowID uuid.UUID
	hour  int64 // unix seconds of the normalized hour
}

// EntryIndex is the (row, normalized hour) lookup built once per data
// refresh; lookups are O(1) thereafter.
type EntryIndex map[cellKey]*ChartEntry

// NewEntryIndex indexes entries by row and normalized hour. When the store
// hands back two entries for the same cell the later one wins, mirroring
// whatever the store resolved on its side.
func NewEntryIndex(entries []*ChartEntry) EntryIndex {
	idx := make(EntryIndex, len(entries))
	for _, e := range entries {
		idx[cellKey{e.RowID, NormalizeHour(e.AtTime).Unix()}] = e
	}
	return idx
}

// Get returns the entry at (rowID, hour), or nil.
func (idx EntryIndex) Get(rowID uuid.UUID, hour time.Time) *ChartEntry {
	return idx[cellKey{rowID, NormalizeHour(hour).Unix()}]
}

// Cell is one (row, hour) position of a rendered grid.
type Cell struct {
	Entry     *ChartEntry `json:"entry,omitempty"`
	Display   string      `json:"display"`
	Scheduled bool        `json:"scheduled"`
	Disabled  bool        `json:"disabled"`
}

// GridRow pairs a chart row with its cells in hour order.
type GridRow struct {
	Row   *ChartRow `json:"row"`
	Cells []Cell    `json:"cells"`
}

// Grid is the rendered chart: rows in display order, one cell per hour.
type Grid struct {
	Hours []time.Time `json:"hours"`
	Rows  []GridRow   `json:"rows"`
}

// BuildGrid assembles the grid for an arbitrary hour sequence. Cells at hours
// before the admission hour are disabled; mutations against them are rejected
// by the service regardless of what a client renders.
func BuildGrid(admissionAt time.Time, hours []time.Time, rows []*ChartRow, entries []*ChartEntry, schedules []*Schedule) *Grid {
	idx := NewEntryIndex(entries)
	admissionHour := NormalizeHour(admissionAt)

	sorted := make([]*ChartRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	grid := &Grid{Hours: hours, Rows: make([]GridRow, 0, len(sorted))}
	for _, row := range sorted {
		cells := make([]Cell, len(hours))
		for i, h := range hours {
			entry := idx.Get(row.ID, h)
			cells[i] = Cell{
				Entry:     entry,
				Display:   DisplayValue(row.Kind, entry),
				Scheduled: IsRowScheduledAt(row.ID, h, schedules),
				Disabled:  h.Before(admissionHour),
			}
		}
		grid.Rows = append(grid.Rows, GridRow{Row: row, Cells: cells})
	}
	return grid
}

// BuildDayGrid renders one day of the chart: every row crossed with the 24
// hours of day.
func BuildDayGrid(admissionAt, day time.Time, rows []*ChartRow, entries []*ChartEntry, schedules []*Schedule) *Grid {
	return BuildGrid(admissionAt, HoursOfDay(day), rows, entries, schedules)
}

// BuildStayGrid renders the full stay from admission through end (now for
// active stays, archival time otherwise).
func BuildStayGrid(admissionAt, end time.Time, rows []*ChartRow, entries []*ChartEntry, schedules []*Schedule) *Grid {
	return BuildGrid(admissionAt, HoursBetween(admissionAt, end), rows, entries, schedules)
}
