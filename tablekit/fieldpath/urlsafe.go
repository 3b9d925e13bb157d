package fieldpath

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// embedDelim stands in for '[:...]' brackets in the URL-safe form. It cannot
// occur inside a valid identifier (see Parse), which keeps the encoding
// reversible and collision-free against relationship paths.
const embedDelim = "__"

// URLSafe encodes the path for use as a flat query-parameter key:
// relationship separators stay '.', embedded brackets become "__".
//
//	"artist.name"    => "artist.name"
//	"a[:b][:c]"      => "a__b__c"
//	"artist.p[:bio]" => "artist.p__bio"
func (p FieldPath) URLSafe() string {
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
		case Embedded:
			sb.WriteString(embedDelim)
		}
		sb.WriteString(next)
	}
	if len(p.Segments) == 0 {
		return p.Leaf
	}
	return sb.String()
}

// FromURLSafe decodes a URL-safe key back into a FieldPath. It is the exact
// inverse of URLSafe over every valid path, nesting included:
// "a__b__c" decodes to a[:b][:c], never a[:b__c].
func FromURLSafe(s string) (FieldPath, error) {
	if s == "" {
		return FieldPath{}, &ParseError{Input: s, Msg: "empty path"}
	}

	var segments []Segment
	var leaf string

	pieces := strings.Split(s, ".")
	for i, piece := range pieces {
		comps := strings.Split(piece, embedDelim)
		for j, comp := range comps {
			if !validIdent(comp) {
				return FieldPath{}, &ParseError{Input: s, Msg: fmt.Sprintf("invalid component %q", comp)}
			}
			switch {
			case j+1 < len(comps):
				segments = append(segments, Embedded{Name: comp})
			case i+1 < len(pieces):
				segments = append(segments, Relationship{Name: comp})
			default:
				leaf = comp
			}
		}
	}

	return FieldPath{Segments: segments, Leaf: leaf}, nil
}

// Humanize produces a display label: every component is title-cased with
// underscores read as spaces, and boundaries join with " > ".
//
//	"artist.name"          => "Artist > Name"
//	"profile[:birth_date]" => "Profile > Birth Date"
func (p FieldPath) Humanize() string {
	comps := p.components()
	out := make([]string, len(comps))
	for i, comp := range comps {
		out[i] = HumanizeName(comp)
	}
	return strings.Join(out, " > ")
}

// HumanizeName title-cases a single identifier, reading underscores as word
// breaks: "supplier_name" => "Supplier Name". A Caser is stateful, so one is
// built per call rather than shared.
func HumanizeName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
