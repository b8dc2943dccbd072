package calendar

import (
	"sort"

	"racecal.simsportsarena.com/internal/models"
)

// Filter holds the chip-based predicates plus an optional racer/club
// selection. Apply is a pure conjunction of independent predicates,
// so applying filters in any order yields the same result set. The
// zero value matches everything.
type Filter struct {
	disciplines map[string]bool
	circuits    map[string]bool
	ageGroups   map[string]bool

	ConfirmedOnly bool
	HidePast      bool

	// eventIDs is the racer/club selection, AND-composed with the
	// chips. nil means no selection; an empty non-nil set matches
	// nothing.
	eventIDs map[string]bool
}

func toggle(set map[string]bool, value string) map[string]bool {
	if set == nil {
		set = map[string]bool{}
	}
	if set[value] {
		delete(set, value)
	} else {
		set[value] = true
	}
	return set
}

func sorted(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// ToggleDiscipline flips one discipline chip. Unknown values toggle
// like any other: chips are generated from the dataset, so a value no
// event carries simply matches nothing until toggled off again.
func (f *Filter) ToggleDiscipline(value string) { f.disciplines = toggle(f.disciplines, value) }

func (f *Filter) ToggleCircuit(value string) { f.circuits = toggle(f.circuits, value) }

func (f *Filter) ToggleAgeGroup(value string) { f.ageGroups = toggle(f.ageGroups, value) }

func (f *Filter) Disciplines() []string { return sorted(f.disciplines) }
func (f *Filter) Circuits() []string    { return sorted(f.circuits) }
func (f *Filter) AgeGroups() []string   { return sorted(f.ageGroups) }

func (f *Filter) HasDiscipline(value string) bool { return f.disciplines[value] }
func (f *Filter) HasCircuit(value string) bool    { return f.circuits[value] }
func (f *Filter) HasAgeGroup(value string) bool   { return f.ageGroups[value] }

// SelectEventIDs narrows the result set to exactly the given event
// ids, on top of the active chips. Used for racer/club selection.
func (f *Filter) SelectEventIDs(ids []string) {
	f.eventIDs = make(map[string]bool, len(ids))
	for _, id := range ids {
		f.eventIDs[id] = true
	}
}

func (f *Filter) ClearSelection() { f.eventIDs = nil }

// ClearAll resets every predicate to its empty/false state.
func (f *Filter) ClearAll() {
	f.disciplines = nil
	f.circuits = nil
	f.ageGroups = nil
	f.ConfirmedOnly = false
	f.HidePast = false
	f.eventIDs = nil
}

// Empty reports whether the filter matches everything.
func (f *Filter) Empty() bool {
	return len(f.disciplines) == 0 && len(f.circuits) == 0 &&
		len(f.ageGroups) == 0 && !f.ConfirmedOnly && !f.HidePast &&
		f.eventIDs == nil
}

// Apply returns the subsequence of events satisfying every active
// predicate. It never mutates the input or the filter.
func (f *Filter) Apply(events []models.Event) []models.Event {
	if f.Empty() {
		return events
	}

	matched := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if f.matches(ev) {
			matched = append(matched, ev)
		}
	}
	return matched
}

func (f *Filter) matches(ev models.Event) bool {
	if f.HidePast && ev.Status == models.StatusCompleted {
		return false
	}
	if f.ConfirmedOnly && !ev.PCSSConfirmed {
		return false
	}
	if len(f.disciplines) > 0 && !intersects(f.disciplines, ev.Disciplines) {
		return false
	}
	if len(f.circuits) > 0 && !f.circuits[ev.Circuit] {
		return false
	}
	if len(f.ageGroups) > 0 && !intersects(f.ageGroups, ev.AgeGroups) {
		return false
	}
	if f.eventIDs != nil && !f.eventIDs[ev.ID] {
		return false
	}
	return true
}

func intersects(set map[string]bool, values []string) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}
