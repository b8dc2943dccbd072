package calendar

import (
	"sort"

	"racecal.simsportsarena.com/internal/models"
)

// Segment is one event's occupancy within one week row. Columns are
// 1-based; EndCol is exclusive, so an event ending on the row's 3rd
// day occupies [StartCol, 5). Lane indices are assigned per week and
// are not consistent across weeks for a multi-week event.
type Segment struct {
	Event    models.Event
	StartCol int
	EndCol   int
	Lane     int
	// ContinuesFromPriorWeek and ContinuesIntoNextWeek mark that the
	// event's range extends beyond this row's visible span.
	ContinuesFromPriorWeek bool
	ContinuesIntoNextWeek  bool
}

func (s Segment) overlaps(other Segment) bool {
	return !(s.EndCol <= other.StartCol || s.StartCol >= other.EndCol)
}

// Lanes computes the segments for one week row from the filtered event
// list, packing them into lanes so that no two segments sharing a lane
// overlap. Returns the segments and the number of lanes used, which
// drives the rendered row height.
//
// Candidates are ordered by ascending start column, ties broken by
// descending span and then event id, so layout is stable across
// re-renders regardless of input order. Packing is greedy interval
// coloring: first lane that fits, new lane otherwise. With the
// stable start-ascending order required for display this is a
// practical heuristic, not a proven-minimal packing.
func Lanes(week WeekRow, events []models.Event) ([]Segment, int) {
	candidates := make([]Segment, 0, len(events))
	for _, ev := range events {
		if !ev.Dates.Overlaps(week.First(), week.Last()) {
			continue
		}

		seg := Segment{Event: ev, StartCol: 1, EndCol: 8}
		if ev.Dates.Start.Before(week.First()) {
			seg.ContinuesFromPriorWeek = true
		} else {
			seg.StartCol = ev.Dates.Start.DaysSince(week.First()) + 1
		}
		if ev.Dates.End.After(week.Last()) {
			seg.ContinuesIntoNextWeek = true
		} else {
			seg.EndCol = ev.Dates.End.DaysSince(week.First()) + 2
		}

		candidates = append(candidates, seg)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		if spanA, spanB := a.EndCol-a.StartCol, b.EndCol-b.StartCol; spanA != spanB {
			return spanA > spanB
		}
		return a.Event.ID < b.Event.ID
	})

	var lanes [][]Segment
	segments := make([]Segment, 0, len(candidates))
	for _, seg := range candidates {
		lane := -1
		for i, occupied := range lanes {
			fits := true
			for _, other := range occupied {
				if seg.overlaps(other) {
					fits = false
					break
				}
			}
			if fits {
				lane = i
				break
			}
		}
		if lane < 0 {
			lane = len(lanes)
			lanes = append(lanes, nil)
		}

		seg.Lane = lane
		lanes[lane] = append(lanes[lane], seg)
		segments = append(segments, seg)
	}

	return segments, len(lanes)
}
