package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nonibytes/tablekit/tablekit"
	"github.com/nonibytes/tablekit/tablekit/filter"
	"github.com/nonibytes/tablekit/tablekit/schema"
	"github.com/nonibytes/tablekit/tablekit/storage"
	"github.com/nonibytes/tablekit/tablekit/storage/postgres"
	"github.com/nonibytes/tablekit/tablekit/storage/sqlite"
)

// ViewFile is the YAML form of one view definition. Schemas are declared in
// a flat map and referenced by name, so related entities and embedded
// structures reuse one declaration; Root names the entry the view queries.
type ViewFile struct {
	Source   SourceSpec            `yaml:"source"`
	PageSize int                   `yaml:"page_size"`
	Root     string                `yaml:"root"`
	Schemas  map[string]SchemaSpec `yaml:"schemas"`
	Columns  []ColumnSpec          `yaml:"columns"`
}

// SourceSpec selects the data source. Backend is sqlite (default) or
// postgres. Driver picks the sqlite driver ("sqlite" or "sqlite3");
// Schema pins the postgres schema.
type SourceSpec struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
	Driver  string `yaml:"driver"`
	Schema  string `yaml:"schema"`
}

// SchemaSpec is one named schema. Table and Key apply to table-backed
// entries; an entry referenced only from embeds leaves them empty.
type SchemaSpec struct {
	Table         string               `yaml:"table"`
	Key           string               `yaml:"key"`
	Attributes    map[string]AttrSpec  `yaml:"attributes"`
	Relationships map[string]RelSpec   `yaml:"relationships"`
	Embeds        map[string]EmbedSpec `yaml:"embeds"`
}

type AttrSpec struct {
	Type   string    `yaml:"type"`
	Values []string  `yaml:"values"`
	Elem   *AttrSpec `yaml:"elem"`
	Column string    `yaml:"column"`
}

type RelSpec struct {
	Schema     string `yaml:"schema"`
	Table      string `yaml:"table"`
	LocalKey   string `yaml:"local_key"`
	ForeignKey string `yaml:"foreign_key"`
}

type EmbedSpec struct {
	Schema string `yaml:"schema"`
	Column string `yaml:"column"`
}

// ColumnSpec is one column declaration. Kind and Options, when present,
// override inference.
type ColumnSpec struct {
	Field      string      `yaml:"field"`
	Label      string      `yaml:"label"`
	Filterable bool        `yaml:"filterable"`
	Sortable   bool        `yaml:"sortable"`
	Kind       string      `yaml:"kind"`
	Options    OptionsSpec `yaml:"options"`
}

type OptionsSpec struct {
	Prompt   string       `yaml:"prompt"`
	Operator string       `yaml:"operator"`
	Choices  []ChoiceSpec `yaml:"choices"`
	Handler  string       `yaml:"handler"`
}

type ChoiceSpec struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// LoadViewFile reads and decodes one view definition file.
func LoadViewFile(path string) (*ViewFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read view file: %w", err)
	}
	var f ViewFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse view file %s: %w", path, err)
	}
	if f.Root == "" {
		return nil, fmt.Errorf("view file %s: root schema is required", path)
	}
	if _, ok := f.Schemas[f.Root]; !ok {
		return nil, fmt.Errorf("view file %s: root names unknown schema %q", path, f.Root)
	}
	return &f, nil
}

// BuildSchema materializes the named schema declarations into a wired
// MapSchema graph. Two passes: build every schema, then connect
// relationships and embeds by name so cycles and shared targets work.
func (f *ViewFile) BuildSchema() (*schema.MapSchema, error) {
	built := make(map[string]*schema.MapSchema, len(f.Schemas))
	for name, spec := range f.Schemas {
		m := &schema.MapSchema{
			TableName:  spec.Table,
			PrimaryKey: spec.Key,
			Attributes: map[string]schema.AttrSpec{},
		}
		for attr, a := range spec.Attributes {
			m.Attributes[attr] = a.toSchema()
		}
		built[name] = m
	}

	for name, spec := range f.Schemas {
		m := built[name]
		for rel, r := range spec.Relationships {
			dest, ok := built[r.Schema]
			if !ok {
				return nil, fmt.Errorf("schema %s: relationship %s references unknown schema %q", name, rel, r.Schema)
			}
			if m.Relationships == nil {
				m.Relationships = map[string]schema.RelSpec{}
			}
			m.Relationships[rel] = schema.RelSpec{
				Schema:     dest,
				Table:      r.Table,
				LocalKey:   r.LocalKey,
				ForeignKey: r.ForeignKey,
			}
		}
		for emb, e := range spec.Embeds {
			dest, ok := built[e.Schema]
			if !ok {
				return nil, fmt.Errorf("schema %s: embed %s references unknown schema %q", name, emb, e.Schema)
			}
			if m.Embeds == nil {
				m.Embeds = map[string]schema.EmbedSpec{}
			}
			m.Embeds[emb] = schema.EmbedSpec{Schema: dest, Column: e.Column}
		}
	}

	return built[f.Root], nil
}

func (a AttrSpec) toSchema() schema.AttrSpec {
	out := schema.AttrSpec{
		Type:   schema.AttrType(a.Type),
		Values: a.Values,
		Column: a.Column,
	}
	if a.Elem != nil {
		elem := a.Elem.toSchema()
		out.Elem = &elem
	}
	return out
}

// BuildAdapter constructs the storage adapter the source section selects.
func (f *ViewFile) BuildAdapter() (storage.Adapter, error) {
	if f.Source.DSN == "" {
		return nil, fmt.Errorf("source: dsn is required")
	}
	switch f.Source.Backend {
	case "", "sqlite":
		switch f.Source.Driver {
		case "":
			return sqlite.New(f.Source.DSN), nil
		case "sqlite", "sqlite3":
			return sqlite.NewWithDriver(f.Source.DSN, f.Source.Driver), nil
		default:
			return nil, fmt.Errorf("source: unknown sqlite driver %q", f.Source.Driver)
		}
	case "postgres", "pg":
		return postgres.New(f.Source.DSN, f.Source.Schema), nil
	default:
		return nil, fmt.Errorf("source: unknown backend %q", f.Source.Backend)
	}
}

// BuildColumns converts the column declarations.
func (f *ViewFile) BuildColumns() ([]tablekit.Column, error) {
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("view file declares no columns")
	}
	cols := make([]tablekit.Column, 0, len(f.Columns))
	for _, spec := range f.Columns {
		kind := filter.Kind(spec.Kind)
		if spec.Kind != "" && !filter.KnownKind(kind) {
			return nil, fmt.Errorf("column %s: unknown kind %q", spec.Field, spec.Kind)
		}
		opts := filter.Options{
			Prompt:   spec.Options.Prompt,
			Operator: filter.Operator(spec.Options.Operator),
			Handler:  spec.Options.Handler,
		}
		for _, c := range spec.Options.Choices {
			opts.Choices = append(opts.Choices, filter.Option{Label: c.Label, Value: c.Value})
		}
		cols = append(cols, tablekit.Column{
			Field:      spec.Field,
			Label:      spec.Label,
			Filterable: spec.Filterable,
			Sortable:   spec.Sortable,
			Kind:       kind,
			Options:    opts,
		})
	}
	return cols, nil
}

// BuildView assembles the complete view: schema graph, columns and adapter.
func (f *ViewFile) BuildView() (*tablekit.View, error) {
	root, err := f.BuildSchema()
	if err != nil {
		return nil, err
	}
	adapter, err := f.BuildAdapter()
	if err != nil {
		return nil, err
	}
	cols, err := f.BuildColumns()
	if err != nil {
		return nil, err
	}
	return tablekit.NewView(tablekit.Config{
		Schema:   root,
		Columns:  cols,
		Adapter:  adapter,
		PageSize: f.PageSize,
	})
}
