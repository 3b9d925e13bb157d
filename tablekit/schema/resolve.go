package schema

import (
	"fmt"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
)

// NotFoundError reports the first path component that failed to resolve
// against the schema.
type NotFoundError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("field %q does not resolve: %q %s", e.Path, e.Segment, e.Reason)
}

// Resolve walks a field path against the provider and returns the descriptor
// of the leaf attribute. Relationship segments must name relationships,
// embedded segments must name embeds, and the final component must name an
// attribute on whatever entity the walk lands on.
//
// An embedded segment that lands on a map-typed attribute ends the walk with
// TypeUnknown and no error: the path digs into schemaless JSON, so it is
// addressable but its type cannot be known. Every other miss is a
// *NotFoundError carrying the failing component.
func Resolve(p Provider, path fieldpath.FieldPath) (Descriptor, error) {
	cur := p
	for _, seg := range path.Segments {
		switch s := seg.(type) {
		case fieldpath.Relationship:
			next, ok := cur.Relationship(s.Name)
			if !ok {
				return Descriptor{}, &NotFoundError{Path: path.String(), Segment: s.Name, Reason: "is not a relationship"}
			}
			cur = next
		case fieldpath.Embedded:
			next, ok := cur.Embed(s.Name)
			if !ok {
				if isMapAttribute(cur, s.Name) {
					return Descriptor{Type: TypeUnknown}, nil
				}
				return Descriptor{}, &NotFoundError{Path: path.String(), Segment: s.Name, Reason: "is not an embed"}
			}
			cur = next
		}
	}

	d, ok := cur.Attribute(path.Leaf)
	if !ok {
		return Descriptor{}, &NotFoundError{Path: path.String(), Segment: path.Leaf, Reason: "is not an attribute"}
	}
	return d, nil
}

func isMapAttribute(p Provider, name string) bool {
	d, ok := p.Attribute(name)
	return ok && d.Type == TypeMap
}
