package fieldpath

import "strings"

// Segment is one traversal step in a field path.
type Segment interface {
	isSegment()
	SegmentName() string
}

// Relationship traverses to another schema (a foreign entity).
type Relationship struct {
	Name string
}

func (Relationship) isSegment()            {}
func (s Relationship) SegmentName() string { return s.Name }

// Embedded traverses into a nested structured attribute on the same record.
type Embedded struct {
	Name string
}

func (Embedded) isSegment()            {}
func (s Embedded) SegmentName() string { return s.Name }

// FieldPath is the schema-validated address of a leaf attribute, possibly
// traversing relationships and embedded structures on the way. Paths are
// constructed once per column definition and treated as immutable.
type FieldPath struct {
	Segments []Segment
	Leaf     string
}

// Root returns a path addressing a leaf attribute directly on the root schema.
func Root(leaf string) FieldPath {
	return FieldPath{Leaf: leaf}
}

// IsRoot reports whether the path has no traversal segments.
func (p FieldPath) IsRoot() bool {
	return len(p.Segments) == 0
}

// String renders the canonical text form: relationship steps join with '.',
// embedded steps wrap the following component in '[:name]'.
//
//	[Relationship(artist)] + "name"       => "artist.name"
//	[Embedded(profile)] + "age"           => "profile[:age]"
//	[Relationship(a), Embedded(b)] + "c"  => "a.b[:c]"
func (p FieldPath) String() string {
	var sb strings.Builder
	for i, seg := range p.Segments {
		next := p.Leaf
		if i+1 < len(p.Segments) {
			next = p.Segments[i+1].SegmentName()
		}
		if i == 0 {
			sb.WriteString(seg.SegmentName())
		}
		switch seg.(type) {
		case Relationship:
			sb.WriteByte('.')
			sb.WriteString(next)
		case Embedded:
			sb.WriteString("[:")
			sb.WriteString(next)
			sb.WriteByte(']')
		}
	}
	if len(p.Segments) == 0 {
		return p.Leaf
	}
	return sb.String()
}

// Equal reports whether two paths address the same leaf through the same steps.
func (p FieldPath) Equal(o FieldPath) bool {
	if p.Leaf != o.Leaf || len(p.Segments) != len(o.Segments) {
		return false
	}
	for i, seg := range p.Segments {
		switch s := seg.(type) {
		case Relationship:
			r, ok := o.Segments[i].(Relationship)
			if !ok || r.Name != s.Name {
				return false
			}
		case Embedded:
			e, ok := o.Segments[i].(Embedded)
			if !ok || e.Name != s.Name {
				return false
			}
		}
	}
	return true
}

// components returns every name along the path in order, leaf included.
func (p FieldPath) components() []string {
	out := make([]string, 0, len(p.Segments)+1)
	for _, seg := range p.Segments {
		out = append(out, seg.SegmentName())
	}
	return append(out, p.Leaf)
}
