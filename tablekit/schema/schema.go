// Package schema describes the logical and physical shape of a data source:
// which attributes an entity has, which relationships lead to other entities,
// and which embedded structures live inside JSON-encoded columns. The filter
// engine asks logical questions (Provider); the query compiler asks physical
// ones (Relation).
package schema

// AttrType classifies a leaf attribute. Filter inference maps each type to a
// default filter kind.
type AttrType string

const (
	TypeText     AttrType = "text"
	TypeString   AttrType = "string"
	TypeBoolean  AttrType = "boolean"
	TypeInteger  AttrType = "integer"
	TypeDecimal  AttrType = "decimal"
	TypeFloat    AttrType = "float"
	TypeDate     AttrType = "date"
	TypeDatetime AttrType = "datetime"
	TypeEnum     AttrType = "enum"
	TypeArray    AttrType = "array"
	TypeMap      AttrType = "map"
	TypeUnknown  AttrType = "unknown"
)

// KnownType reports whether t is a declared attribute type.
func KnownType(t AttrType) bool {
	switch t {
	case TypeText, TypeString, TypeBoolean, TypeInteger, TypeDecimal, TypeFloat,
		TypeDate, TypeDatetime, TypeEnum, TypeArray, TypeMap, TypeUnknown:
		return true
	}
	return false
}

// Descriptor describes one resolved leaf attribute. Values is populated for
// enum attributes, Elem for array attributes.
type Descriptor struct {
	Type   AttrType
	Values []string
	Elem   *Descriptor
}

// Provider answers logical introspection queries about one entity. Resolve
// walks a field path against a Provider without touching physical details.
type Provider interface {
	// Attribute returns the descriptor for a leaf attribute.
	Attribute(name string) (Descriptor, bool)
	// Relationship returns the provider describing a related entity.
	Relationship(name string) (Provider, bool)
	// Embed returns the provider describing a nested structure stored
	// inside this entity.
	Embed(name string) (Provider, bool)
}

// Join binds one relationship hop to its physical join condition.
type Join struct {
	// Table is the destination table.
	Table string
	// LocalKey is the column on the current table.
	LocalKey string
	// ForeignKey is the column on the destination table.
	ForeignKey string
	// Schema describes the destination, so traversal can continue.
	Schema Relation
}

// Relation extends Provider with the physical binding the query compiler
// needs: table and key names, column mappings, join conditions, and the
// JSON columns backing embedded structures.
type Relation interface {
	Provider

	// Table returns the table name.
	Table() string
	// Key returns the primary key column.
	Key() string
	// Column maps an attribute name to its physical column.
	Column(attr string) (string, bool)
	// JoinTo returns the join condition for a relationship.
	JoinTo(rel string) (Join, bool)
	// EmbedColumn maps an embed name to the JSON column (or, inside an
	// embedded structure, the JSON object key) that stores it.
	EmbedColumn(name string) (string, bool)
}
