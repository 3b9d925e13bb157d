package schema

import (
	"fmt"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
)

// AttrSpec declares one attribute of a map-backed schema. Column overrides
// the physical column name (or JSON object key inside an embed); it defaults
// to the attribute name.
type AttrSpec struct {
	Type   AttrType  `json:"type"`
	Values []string  `json:"values,omitempty"`
	Elem   *AttrSpec `json:"elem,omitempty"`
	Column string    `json:"column,omitempty"`
}

// RelSpec declares a relationship to another entity. LocalKey is the column
// on the declaring table, ForeignKey the column on the destination table.
// Table overrides the destination schema's table name when set.
type RelSpec struct {
	Schema     *MapSchema `json:"-"`
	Table      string     `json:"table,omitempty"`
	LocalKey   string     `json:"local_key"`
	ForeignKey string     `json:"foreign_key"`
}

// EmbedSpec declares a nested structure stored as JSON. At the top level of
// a table-backed schema Column names the JSON column; inside another embed it
// names the JSON object key. It defaults to the embed name.
type EmbedSpec struct {
	Schema *MapSchema `json:"-"`
	Column string     `json:"column,omitempty"`
}

// MapSchema is the map-backed Relation implementation. A root schema binds to
// a table; the schemas nested under Embeds describe JSON structure and carry
// no table binding.
type MapSchema struct {
	TableName     string               `json:"table,omitempty"`
	PrimaryKey    string               `json:"key,omitempty"`
	Attributes    map[string]AttrSpec  `json:"attributes"`
	Relationships map[string]RelSpec   `json:"relationships,omitempty"`
	Embeds        map[string]EmbedSpec `json:"embeds,omitempty"`
}

func (spec AttrSpec) descriptor() Descriptor {
	d := Descriptor{Type: spec.Type, Values: spec.Values}
	if spec.Elem != nil {
		elem := spec.Elem.descriptor()
		d.Elem = &elem
	}
	return d
}

// Attribute implements Provider.
func (s *MapSchema) Attribute(name string) (Descriptor, bool) {
	spec, ok := s.Attributes[name]
	if !ok {
		return Descriptor{}, false
	}
	return spec.descriptor(), true
}

// Relationship implements Provider. Schemas nested under Embeds never have
// relationships (Validate refuses them), so embedded traversal cannot hop to
// another table.
func (s *MapSchema) Relationship(name string) (Provider, bool) {
	r, ok := s.Relationships[name]
	if !ok || r.Schema == nil {
		return nil, false
	}
	return r.Schema, true
}

// Embed implements Provider.
func (s *MapSchema) Embed(name string) (Provider, bool) {
	e, ok := s.Embeds[name]
	if !ok || e.Schema == nil {
		return nil, false
	}
	return e.Schema, true
}

// Table implements Relation.
func (s *MapSchema) Table() string {
	return s.TableName
}

// Key implements Relation. Defaults to "id".
func (s *MapSchema) Key() string {
	if s.PrimaryKey == "" {
		return "id"
	}
	return s.PrimaryKey
}

// Column implements Relation.
func (s *MapSchema) Column(attr string) (string, bool) {
	spec, ok := s.Attributes[attr]
	if !ok {
		return "", false
	}
	if spec.Column != "" {
		return spec.Column, true
	}
	return attr, true
}

// JoinTo implements Relation.
func (s *MapSchema) JoinTo(rel string) (Join, bool) {
	r, ok := s.Relationships[rel]
	if !ok || r.Schema == nil {
		return Join{}, false
	}
	table := r.Table
	if table == "" {
		table = r.Schema.TableName
	}
	return Join{
		Table:      table,
		LocalKey:   r.LocalKey,
		ForeignKey: r.ForeignKey,
		Schema:     r.Schema,
	}, true
}

// EmbedColumn implements Relation.
func (s *MapSchema) EmbedColumn(name string) (string, bool) {
	e, ok := s.Embeds[name]
	if !ok {
		return "", false
	}
	if e.Column != "" {
		return e.Column, true
	}
	return name, true
}

// Validate checks the schema for structural problems: bad identifiers, unknown
// attribute types, enum values on non-enums, dangling relationship or embed
// targets, and relationships declared inside embedded structures. Cyclic
// relationship graphs are expected and handled.
func (s *MapSchema) Validate() error {
	return s.validate("", true, map[*MapSchema]bool{})
}

func (s *MapSchema) validate(at string, root bool, seen map[*MapSchema]bool) error {
	if seen[s] {
		return nil
	}
	seen[s] = true

	where := func(name string) string {
		if at == "" {
			return name
		}
		return at + "." + name
	}

	if root {
		if s.TableName == "" {
			return fmt.Errorf("schema has no table name")
		}
		if !fieldpath.ValidName(s.TableName) {
			return fmt.Errorf("invalid table name: %s", s.TableName)
		}
	} else if s.TableName != "" {
		return fmt.Errorf("embedded schema %s must not bind a table", at)
	}
	if s.PrimaryKey != "" && !fieldpath.ValidName(s.PrimaryKey) {
		return fmt.Errorf("invalid key column: %s", s.PrimaryKey)
	}

	if len(s.Attributes) == 0 && len(s.Embeds) == 0 {
		return fmt.Errorf("schema %s declares no attributes", orRoot(at))
	}

	for name, spec := range s.Attributes {
		if !fieldpath.ValidName(name) {
			return fmt.Errorf("invalid attribute name: %s", where(name))
		}
		if err := spec.validate(where(name)); err != nil {
			return err
		}
	}

	if !root && len(s.Relationships) > 0 {
		return fmt.Errorf("embedded schema %s must not declare relationships", at)
	}
	for name, r := range s.Relationships {
		if !fieldpath.ValidName(name) {
			return fmt.Errorf("invalid relationship name: %s", name)
		}
		if r.Schema == nil {
			return fmt.Errorf("relationship %s has no destination schema", where(name))
		}
		if r.Table != "" && !fieldpath.ValidName(r.Table) {
			return fmt.Errorf("relationship %s has invalid table override: %s", where(name), r.Table)
		}
		if r.LocalKey == "" || r.ForeignKey == "" {
			return fmt.Errorf("relationship %s must declare local_key and foreign_key", where(name))
		}
		if !fieldpath.ValidName(r.LocalKey) || !fieldpath.ValidName(r.ForeignKey) {
			return fmt.Errorf("relationship %s has invalid join columns", where(name))
		}
		if err := r.Schema.validate(where(name), true, seen); err != nil {
			return err
		}
	}

	for name, e := range s.Embeds {
		if !fieldpath.ValidName(name) {
			return fmt.Errorf("invalid embed name: %s", where(name))
		}
		if e.Schema == nil {
			return fmt.Errorf("embed %s has no schema", where(name))
		}
		if e.Column != "" && !fieldpath.ValidName(e.Column) {
			return fmt.Errorf("embed %s has invalid column: %s", where(name), e.Column)
		}
		if err := e.Schema.validate(where(name), false, seen); err != nil {
			return err
		}
	}

	return nil
}

func (spec AttrSpec) validate(at string) error {
	if !KnownType(spec.Type) {
		return fmt.Errorf("attribute %s has unknown type %q", at, spec.Type)
	}
	if len(spec.Values) > 0 && spec.Type != TypeEnum {
		return fmt.Errorf("attribute %s: values require type enum", at)
	}
	if spec.Type == TypeEnum && len(spec.Values) == 0 {
		return fmt.Errorf("attribute %s: enum declares no values", at)
	}
	if spec.Elem != nil {
		if spec.Type != TypeArray {
			return fmt.Errorf("attribute %s: elem requires type array", at)
		}
		if err := spec.Elem.validate(at + "[]"); err != nil {
			return err
		}
	}
	if spec.Column != "" && !fieldpath.ValidName(spec.Column) {
		return fmt.Errorf("attribute %s has invalid column: %s", at, spec.Column)
	}
	return nil
}

func orRoot(at string) string {
	if at == "" {
		return "(root)"
	}
	return at
}
