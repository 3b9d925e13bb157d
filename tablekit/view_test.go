package tablekit

import (
	"strings"
	"testing"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
	"github.com/nonibytes/tablekit/tablekit/schema"
	"github.com/nonibytes/tablekit/tablekit/state"
	"github.com/nonibytes/tablekit/tablekit/storage/sqlite"
)

func mustPathT(t *testing.T, raw string) fieldpath.FieldPath {
	t.Helper()
	path, err := fieldpath.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return path
}

func trackSchema() *schema.MapSchema {
	artists := &schema.MapSchema{
		TableName:  "artists",
		PrimaryKey: "id",
		Attributes: map[string]schema.AttrSpec{
			"id":   {Type: schema.TypeInteger},
			"name": {Type: schema.TypeText},
		},
	}
	profile := &schema.MapSchema{
		Attributes: map[string]schema.AttrSpec{
			"age": {Type: schema.TypeInteger},
		},
	}
	return &schema.MapSchema{
		TableName:  "tracks",
		PrimaryKey: "id",
		Attributes: map[string]schema.AttrSpec{
			"id":     {Type: schema.TypeInteger},
			"title":  {Type: schema.TypeText},
			"status": {Type: schema.TypeEnum, Values: []string{"draft", "published"}},
		},
		Relationships: map[string]schema.RelSpec{
			"artist": {Schema: artists, LocalKey: "artist_id", ForeignKey: "id"},
		},
		Embeds: map[string]schema.EmbedSpec{
			"profile": {Schema: profile, Column: "profile_json"},
		},
	}
}

func newTestView(t *testing.T, cols ...Column) *View {
	t.Helper()
	if len(cols) == 0 {
		cols = []Column{
			{Field: "title", Filterable: true, Sortable: true},
			{Field: "status", Filterable: true, Sortable: true},
			{Field: "artist.name", Filterable: true, Sortable: true},
			{Field: "profile[:age]", Filterable: true},
		}
	}
	v, err := NewView(Config{
		Schema:  trackSchema(),
		Columns: cols,
		Adapter: sqlite.New("unused.db"),
	})
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	return v
}

func TestNewViewRequiresConfig(t *testing.T) {
	if _, err := NewView(Config{}); !IsKind(err, ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
	if _, err := NewView(Config{Schema: trackSchema(), Adapter: sqlite.New("x.db")}); !IsKind(err, ErrConfig) {
		t.Errorf("expected config error for missing columns, got %v", err)
	}
}

func TestNewViewRejectsBadFieldPathSyntax(t *testing.T) {
	_, err := NewView(Config{
		Schema:  trackSchema(),
		Adapter: sqlite.New("x.db"),
		Columns: []Column{{Field: "title[broken", Filterable: true}},
	})
	if !IsKind(err, ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}

func TestNewViewRejectsInvalidSchema(t *testing.T) {
	_, err := NewView(Config{
		Schema:  &schema.MapSchema{},
		Adapter: sqlite.New("x.db"),
		Columns: []Column{{Field: "title"}},
	})
	if !IsKind(err, ErrSchema) {
		t.Errorf("expected schema error, got %v", err)
	}
}

func TestNewViewRejectsDuplicateColumns(t *testing.T) {
	_, err := NewView(Config{
		Schema:  trackSchema(),
		Adapter: sqlite.New("x.db"),
		Columns: []Column{{Field: "title"}, {Field: "title"}},
	})
	if !IsKind(err, ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestNewViewInfersKinds(t *testing.T) {
	v := newTestView(t)
	cols := v.Columns()
	if cols[0].Kind != filter.Text {
		t.Errorf("title: expected text, got %s", cols[0].Kind)
	}
	if cols[1].Kind != filter.Select || len(cols[1].Options.Choices) != 2 {
		t.Errorf("status: expected select with 2 choices, got %s %v", cols[1].Kind, cols[1].Options.Choices)
	}
	if cols[2].Kind != filter.Text {
		t.Errorf("artist.name: expected text, got %s", cols[2].Kind)
	}
	if cols[3].Kind != filter.NumberRange {
		t.Errorf("profile[:age]: expected number range, got %s", cols[3].Kind)
	}
}

func TestNewViewKeepsUnresolvableColumnAsText(t *testing.T) {
	v := newTestView(t, Column{Field: "nonexistent.field", Filterable: true})
	col := v.Columns()[0]
	if col.Found {
		t.Error("expected unresolved column")
	}
	if col.Kind != filter.Text {
		t.Errorf("expected text fallback, got %s", col.Kind)
	}
}

func TestFilterHints(t *testing.T) {
	v := newTestView(t,
		Column{Field: "title", Filterable: true},
		Column{Field: "status", Sortable: true},
	)
	hints := v.FilterHints()
	if len(hints) != 1 || hints[0].Field != "title" {
		t.Errorf("unexpected hints: %+v", hints)
	}
	if hints[0].Label != "Title" {
		t.Errorf("unexpected label: %s", hints[0].Label)
	}
}

func TestViewDecodeEncodeRoundTrip(t *testing.T) {
	v := newTestView(t)
	params := map[string]string{
		"title":        "night",
		"status":       "published",
		"artist.name":  "cave",
		"profile__age": "18,65",
		"sort":         "-status,title",
		"page":         "2",
	}
	st := v.DecodeParams(params)
	if len(st.Filters) != 4 {
		t.Fatalf("expected 4 filters, got %v", st.Filters)
	}
	out := v.EncodeState(st)
	if len(out) != len(params) {
		t.Errorf("round trip diverged:\n in: %v\nout: %v", params, out)
	}
	for k, want := range params {
		if out[k] != want {
			t.Errorf("key %s: got %q, want %q", k, out[k], want)
		}
	}
}

func TestViewToggleSort(t *testing.T) {
	v := newTestView(t)
	st, err := v.ToggleSort(state.New(), "artist.name")
	if err != nil {
		t.Fatalf("ToggleSort: %v", err)
	}
	if len(st.Sort) != 1 || st.Sort[0].Desc {
		t.Fatalf("unexpected sort: %+v", st.Sort)
	}

	if _, err := v.ToggleSort(st, "profile[:age]"); !IsKind(err, ErrInvalidSort) {
		t.Errorf("expected invalid sort for non-sortable column, got %v", err)
	}
	if _, err := v.ToggleSort(st, "no_such"); !IsKind(err, ErrInvalidSort) {
		t.Errorf("expected invalid sort for unknown column, got %v", err)
	}
	if _, err := v.ToggleSort(st, "ti tle"); !IsKind(err, ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}

func TestViewPlan(t *testing.T) {
	v := newTestView(t)
	st := v.DecodeParams(map[string]string{"title": "night", "sort": "title"})
	q, err := v.Plan(st)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !strings.Contains(q.SelectSQL, "FROM tracks t0") {
		t.Errorf("unexpected sql: %s", q.SelectSQL)
	}
	if !strings.Contains(q.SelectSQL, "LIKE") {
		t.Errorf("expected text constraint: %s", q.SelectSQL)
	}
}

func TestViewPlanInvalidSort(t *testing.T) {
	v := newTestView(t)
	st := state.New().ToggleSort(mustPathT(t, "bogus.path"))
	if _, err := v.Plan(st); !IsKind(err, ErrInvalidSort) {
		t.Errorf("expected invalid sort error, got %v", err)
	}
}

func TestViewPlanIDs(t *testing.T) {
	v := newTestView(t)
	st := v.DecodeParams(map[string]string{"status": "published"})
	q, err := v.PlanIDs(st)
	if err != nil {
		t.Fatalf("PlanIDs: %v", err)
	}
	if !strings.HasPrefix(q.SelectSQL, "SELECT t0.id FROM tracks t0") {
		t.Errorf("unexpected sql: %s", q.SelectSQL)
	}
}
