package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nonibytes/tablekit/tablekit/filter"
	"github.com/nonibytes/tablekit/tablekit/schema"
	"github.com/nonibytes/tablekit/tablekit/storage"
)

const catalogYAML = `
source:
  backend: sqlite
  dsn: ./catalog.db
page_size: 10
root: tracks
schemas:
  tracks:
    table: tracks
    key: id
    attributes:
      id: {type: integer}
      title: {type: text}
      status: {type: enum, values: [draft, published]}
      duration: {type: integer}
    relationships:
      artist: {schema: artists, local_key: artist_id, foreign_key: id}
    embeds:
      profile: {schema: profile, column: profile_json}
  artists:
    table: artists
    key: id
    attributes:
      id: {type: integer}
      name: {type: text}
  profile:
    attributes:
      age: {type: integer}
columns:
  - field: title
    filterable: true
    sortable: true
  - field: status
    label: State
    filterable: true
  - field: artist.name
    filterable: true
    sortable: true
  - field: profile[:age]
    filterable: true
  - field: duration
    kind: custom
    options: {handler: buckets}
    filterable: true
`

func writeViewFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "view.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write view file: %v", err)
	}
	return path
}

func loadCatalog(t *testing.T) *ViewFile {
	t.Helper()
	file, err := LoadViewFile(writeViewFile(t, catalogYAML))
	if err != nil {
		t.Fatalf("LoadViewFile: %v", err)
	}
	return file
}

func TestLoadViewFileRejectsMissingRoot(t *testing.T) {
	_, err := LoadViewFile(writeViewFile(t, "schemas: {}\ncolumns: []\n"))
	if err == nil || !strings.Contains(err.Error(), "root schema is required") {
		t.Errorf("expected root error, got %v", err)
	}

	_, err = LoadViewFile(writeViewFile(t, "root: nope\nschemas: {}\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown schema") {
		t.Errorf("expected unknown schema error, got %v", err)
	}
}

func TestBuildSchemaWiresReferences(t *testing.T) {
	root, err := loadCatalog(t).BuildSchema()
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	if root.Table() != "tracks" {
		t.Errorf("unexpected table: %s", root.Table())
	}
	if err := root.Validate(); err != nil {
		t.Fatalf("built schema invalid: %v", err)
	}

	join, ok := root.JoinTo("artist")
	if !ok || join.Table != "artists" || join.LocalKey != "artist_id" {
		t.Errorf("unexpected join: %+v", join)
	}
	col, ok := root.EmbedColumn("profile")
	if !ok || col != "profile_json" {
		t.Errorf("unexpected embed column: %s", col)
	}
	emb, ok := root.Embed("profile")
	if !ok {
		t.Fatal("profile embed missing")
	}
	if d, ok := emb.Attribute("age"); !ok || d.Type != schema.TypeInteger {
		t.Errorf("unexpected age descriptor: %+v", d)
	}
}

func TestBuildSchemaRejectsDanglingReference(t *testing.T) {
	file := loadCatalog(t)
	spec := file.Schemas["tracks"]
	spec.Relationships["artist"] = RelSpec{Schema: "nope", LocalKey: "artist_id", ForeignKey: "id"}
	file.Schemas["tracks"] = spec

	_, err := file.BuildSchema()
	if err == nil || !strings.Contains(err.Error(), `unknown schema "nope"`) {
		t.Errorf("expected dangling reference error, got %v", err)
	}
}

func TestBuildColumns(t *testing.T) {
	cols, err := loadCatalog(t).BuildColumns()
	if err != nil {
		t.Fatalf("BuildColumns: %v", err)
	}
	if len(cols) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(cols))
	}
	if cols[1].Label != "State" {
		t.Errorf("label not carried: %+v", cols[1])
	}
	if cols[4].Kind != filter.Custom || cols[4].Options.Handler != "buckets" {
		t.Errorf("custom kind not carried: %+v", cols[4])
	}
}

func TestBuildColumnsRejectsUnknownKind(t *testing.T) {
	file := loadCatalog(t)
	file.Columns[0].Kind = "dropdown"
	_, err := file.BuildColumns()
	if err == nil || !strings.Contains(err.Error(), `unknown kind "dropdown"`) {
		t.Errorf("expected kind error, got %v", err)
	}
}

func TestBuildAdapterSelectsBackend(t *testing.T) {
	cases := []struct {
		name    string
		source  SourceSpec
		backend storage.Backend
		wantErr string
	}{
		{name: "sqlite default", source: SourceSpec{DSN: "x.db"}, backend: storage.BackendSQLite},
		{name: "sqlite3 driver", source: SourceSpec{Backend: "sqlite", DSN: "x.db", Driver: "sqlite3"}, backend: storage.BackendSQLite},
		{name: "postgres", source: SourceSpec{Backend: "postgres", DSN: "postgres://localhost/app", Schema: "app"}, backend: storage.BackendPostgres},
		{name: "missing dsn", source: SourceSpec{Backend: "sqlite"}, wantErr: "dsn is required"},
		{name: "bad driver", source: SourceSpec{DSN: "x.db", Driver: "oracle"}, wantErr: "unknown sqlite driver"},
		{name: "bad backend", source: SourceSpec{Backend: "mysql", DSN: "x"}, wantErr: "unknown backend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &ViewFile{Source: tc.source}
			adapter, err := f.BuildAdapter()
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("expected %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildAdapter: %v", err)
			}
			if adapter.Backend() != tc.backend {
				t.Errorf("unexpected backend: %s", adapter.Backend())
			}
		})
	}
}

func TestBuildView(t *testing.T) {
	view, err := loadCatalog(t).BuildView()
	if err != nil {
		t.Fatalf("BuildView: %v", err)
	}
	defer view.Close()

	cols := view.Columns()
	if cols[0].Kind != filter.Text || cols[1].Kind != filter.Select {
		t.Errorf("unexpected inference: %s %s", cols[0].Kind, cols[1].Kind)
	}
	if cols[3].Kind != filter.NumberRange {
		t.Errorf("embedded column: expected number range, got %s", cols[3].Kind)
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"title=night", "duration=100,200", "sort=-title", "empty="})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params["title"] != "night" || params["duration"] != "100,200" || params["empty"] != "" {
		t.Errorf("unexpected params: %v", params)
	}
	if _, err := parseParams([]string{"=value"}); err == nil {
		t.Error("expected error for empty key")
	}
}
