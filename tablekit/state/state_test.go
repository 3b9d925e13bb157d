package state

import (
	"testing"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
)

func mustPath(t *testing.T, raw string) fieldpath.FieldPath {
	t.Helper()
	path, err := fieldpath.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return path
}

func TestToggleSortCycle(t *testing.T) {
	title := mustPath(t, "title")
	s := New()

	s = s.ToggleSort(title)
	if len(s.Sort) != 1 || s.Sort[0].Desc {
		t.Fatalf("expected ascending title, got %+v", s.Sort)
	}

	s = s.ToggleSort(title)
	if len(s.Sort) != 1 || !s.Sort[0].Desc {
		t.Fatalf("expected descending title, got %+v", s.Sort)
	}

	s = s.ToggleSort(title)
	if len(s.Sort) != 0 {
		t.Fatalf("expected sort removed, got %+v", s.Sort)
	}
}

func TestToggleSortAppendsAndReplacesInPlace(t *testing.T) {
	title := mustPath(t, "title")
	year := mustPath(t, "release_year")

	s := New().ToggleSort(title).ToggleSort(year)
	if len(s.Sort) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(s.Sort))
	}
	if !s.Sort[0].Field.Equal(title) || !s.Sort[1].Field.Equal(year) {
		t.Fatalf("expected title then release_year, got %+v", s.Sort)
	}

	// Toggling the first field again must flip it in place, not move it.
	s = s.ToggleSort(title)
	if !s.Sort[0].Field.Equal(title) || !s.Sort[0].Desc {
		t.Fatalf("expected title descending in place, got %+v", s.Sort)
	}
	if !s.Sort[1].Field.Equal(year) || s.Sort[1].Desc {
		t.Fatalf("expected release_year untouched, got %+v", s.Sort)
	}

	// A third toggle removes title and compacts.
	s = s.ToggleSort(title)
	if len(s.Sort) != 1 || !s.Sort[0].Field.Equal(year) {
		t.Fatalf("expected only release_year, got %+v", s.Sort)
	}
}

func TestToggleSortDoesNotMutate(t *testing.T) {
	title := mustPath(t, "title")
	before := New().ToggleSort(title)
	after := before.ToggleSort(title)

	if before.Sort[0].Desc {
		t.Error("expected original state untouched")
	}
	if !after.Sort[0].Desc {
		t.Error("expected new state flipped")
	}
}

func TestSortDirection(t *testing.T) {
	title := mustPath(t, "title")
	s := New()
	if got := s.SortDirection(title); got != "" {
		t.Errorf("expected unsorted, got %q", got)
	}
	s = s.ToggleSort(title)
	if got := s.SortDirection(title); got != "asc" {
		t.Errorf("expected asc, got %q", got)
	}
	s = s.ToggleSort(title)
	if got := s.SortDirection(title); got != "desc" {
		t.Errorf("expected desc, got %q", got)
	}
}

func TestWithFilterKeepsStateSparse(t *testing.T) {
	title := mustPath(t, "title")
	s := New().WithFilter(title, filter.Value{Kind: filter.Text, Op: filter.OpContains, Str: "dark"})
	if len(s.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(s.Filters))
	}

	// Setting an empty value removes the entry entirely.
	s = s.WithFilter(title, filter.Value{Kind: filter.Text})
	if len(s.Filters) != 0 {
		t.Errorf("expected empty filter dropped, got %+v", s.Filters)
	}
}

func TestWithFilterDoesNotMutate(t *testing.T) {
	title := mustPath(t, "title")
	before := New()
	after := before.WithFilter(title, filter.Value{Kind: filter.Text, Op: filter.OpContains, Str: "x"})
	if len(before.Filters) != 0 {
		t.Error("expected original state untouched")
	}
	if len(after.Filters) != 1 {
		t.Error("expected new state to carry the filter")
	}
}

func TestWithPageFloorsAtOne(t *testing.T) {
	s := New().WithPage(3)
	if s.Page != 3 {
		t.Errorf("expected page 3, got %d", s.Page)
	}
	s = s.WithPage(0)
	if s.Page != 1 {
		t.Errorf("expected page floored to 1, got %d", s.Page)
	}
	s = s.WithPage(-5)
	if s.Page != 1 {
		t.Errorf("expected page floored to 1, got %d", s.Page)
	}
}

func TestWithoutFilter(t *testing.T) {
	title := mustPath(t, "title")
	s := New().WithFilter(title, filter.Value{Kind: filter.Text, Op: filter.OpContains, Str: "x"})
	s = s.WithoutFilter(title)
	if len(s.Filters) != 0 {
		t.Errorf("expected filter removed, got %+v", s.Filters)
	}
}
