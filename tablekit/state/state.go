// Package state holds the serializable snapshot of one table interaction:
// which filters are active, how rows are sorted, and which page is shown.
// States are values; every transformation returns a new State and never
// mutates the receiver, so a state can be kept, compared and replayed.
package state

import (
	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
)

// SortEntry is one sort criterion. Entries are ordered; earlier entries sort
// first.
type SortEntry struct {
	Field fieldpath.FieldPath
	Desc  bool
}

// State is the complete interaction snapshot. Filters are keyed by the
// canonical field-path text and never contain empty values.
type State struct {
	Filters map[string]filter.Value
	Sort    []SortEntry
	Page    int
}

// New returns the initial state: no filters, no sort, page 1.
func New() State {
	return State{Filters: map[string]filter.Value{}, Page: 1}
}

func (s State) clone() State {
	out := State{
		Filters: make(map[string]filter.Value, len(s.Filters)),
		Sort:    make([]SortEntry, len(s.Sort)),
		Page:    s.Page,
	}
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	copy(out.Sort, s.Sort)
	return out
}

// WithFilter returns a copy with the filter for path set. An empty value
// removes the entry instead, keeping the filter map sparse.
func (s State) WithFilter(path fieldpath.FieldPath, v filter.Value) State {
	out := s.clone()
	key := path.String()
	if filter.IsEmpty(v) {
		delete(out.Filters, key)
	} else {
		out.Filters[key] = v
	}
	return out
}

// WithoutFilter returns a copy with the filter for path removed.
func (s State) WithoutFilter(path fieldpath.FieldPath) State {
	out := s.clone()
	delete(out.Filters, path.String())
	return out
}

// WithPage returns a copy on the given page, floored at 1.
func (s State) WithPage(page int) State {
	out := s.clone()
	if page < 1 {
		page = 1
	}
	out.Page = page
	return out
}

// ToggleSort advances the sort cycle for one field: none to ascending,
// ascending to descending, descending back to none. A newly toggled field
// appends to the end of the sort list; an existing entry changes in place;
// a removed entry compacts the list.
func (s State) ToggleSort(field fieldpath.FieldPath) State {
	out := s.clone()
	for i, e := range out.Sort {
		if !e.Field.Equal(field) {
			continue
		}
		if !e.Desc {
			out.Sort[i].Desc = true
			return out
		}
		out.Sort = append(out.Sort[:i], out.Sort[i+1:]...)
		return out
	}
	out.Sort = append(out.Sort, SortEntry{Field: field})
	return out
}

// SortDirection reports the current cycle position for one field: "" when
// unsorted, "asc" or "desc" otherwise.
func (s State) SortDirection(field fieldpath.FieldPath) string {
	for _, e := range s.Sort {
		if e.Field.Equal(field) {
			if e.Desc {
				return "desc"
			}
			return "asc"
		}
	}
	return ""
}
