// Package planner compiles interaction state into parameterized SQL: one
// constraint per filter value, LEFT JOIN chains for relationship sorts, and
// a paired count query that shares the WHERE clause with the row query.
package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
	"github.com/nonibytes/tablekit/tablekit/schema"
	"github.com/nonibytes/tablekit/tablekit/storage"
	"github.com/nonibytes/tablekit/tablekit/storage/sqlbuilder"
)

// rootAlias is the alias of the outermost table in every compiled query.
const rootAlias = "t0"

// ConstraintFunc builds a custom SQL predicate for one filter value. A
// column can supply one to replace the standard per-kind constraint.
type ConstraintFunc func(b *sqlbuilder.Builder, d storage.Dialect, rel schema.Relation, alias string, path fieldpath.FieldPath, v filter.Value) (string, error)

// Field is one plannable column: the resolved path with its filter kind and
// options, plus an optional custom constraint.
type Field struct {
	Path       fieldpath.FieldPath
	Kind       filter.Kind
	Options    filter.Options
	Sortable   bool
	Constraint ConstraintFunc
}

// BuildConstraint renders the SQL predicate for one filter value against a
// resolved field path. Relationship segments compile to correlated EXISTS
// subqueries, embedded segments to JSON access on the current row; the same
// logical call covers both. An empty string with a nil error means the
// constraint was skipped (unparsable bound) and filters nothing.
func BuildConstraint(b *sqlbuilder.Builder, d storage.Dialect, rel schema.Relation, f Field, v filter.Value, reg *filter.Registry) (string, error) {
	c := &constraintCompiler{b: b, d: d, reg: reg}
	return c.compile(rel, rootAlias, f.Path, f, v)
}

type constraintCompiler struct {
	b      *sqlbuilder.Builder
	d      storage.Dialect
	reg    *filter.Registry
	aliasN int
}

func (c *constraintCompiler) nextAlias() string {
	name := "rel_" + strconv.Itoa(c.aliasN)
	c.aliasN++
	return name
}

func (c *constraintCompiler) compile(rel schema.Relation, alias string, path fieldpath.FieldPath, f Field, v filter.Value) (string, error) {
	if len(path.Segments) > 0 {
		if r, ok := path.Segments[0].(fieldpath.Relationship); ok {
			join, ok := rel.JoinTo(r.Name)
			if !ok {
				return "", fmt.Errorf("field %s: %q is not a relationship", f.Path, r.Name)
			}
			sub := c.nextAlias()
			rest := fieldpath.FieldPath{Segments: path.Segments[1:], Leaf: path.Leaf}
			inner, err := c.compile(join.Schema, sub, rest, f, v)
			if err != nil || inner == "" {
				return "", err
			}
			return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.%s AND %s)",
				join.Table, sub, sub, join.ForeignKey, alias, join.LocalKey, inner), nil
		}
	}
	ref, err := locate(rel, alias, path)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", f.Path, err)
	}
	return c.predicate(ref, f, v)
}

// fieldRef is the physical address of a leaf: a column on a table alias,
// optionally digging into a JSON document through keys.
type fieldRef struct {
	alias  string
	column string
	keys   []string
	desc   schema.Descriptor
}

func (ref fieldRef) qualified() string {
	return ref.alias + "." + ref.column
}

// locate walks the embedded suffix of a path down to its physical column and
// JSON key chain. The relationship prefix must already be consumed: a
// relationship step here is an error because embedded structures never hop
// tables.
//
// An embed name that is a map-typed attribute switches to dynamic mode:
// deeper components become raw JSON keys and the leaf type is unknown.
func locate(rel schema.Relation, alias string, path fieldpath.FieldPath) (fieldRef, error) {
	ref := fieldRef{alias: alias}
	cur := rel
	dynamic := false
	for _, seg := range path.Segments {
		e, ok := seg.(fieldpath.Embedded)
		if !ok {
			return fieldRef{}, fmt.Errorf("relationship %q after an embedded step", seg.SegmentName())
		}
		if dynamic {
			ref.keys = append(ref.keys, e.Name)
			continue
		}
		if next, ok := cur.Embed(e.Name); ok {
			col, _ := cur.EmbedColumn(e.Name)
			if ref.column == "" {
				ref.column = col
			} else {
				ref.keys = append(ref.keys, col)
			}
			nrel, ok := next.(schema.Relation)
			if !ok {
				return fieldRef{}, fmt.Errorf("embed %q has no physical binding", e.Name)
			}
			cur = nrel
			continue
		}
		if d, ok := cur.Attribute(e.Name); ok && d.Type == schema.TypeMap {
			col, _ := cur.Column(e.Name)
			if ref.column == "" {
				ref.column = col
			} else {
				ref.keys = append(ref.keys, col)
			}
			dynamic = true
			continue
		}
		return fieldRef{}, fmt.Errorf("%q is not an embed", e.Name)
	}

	if dynamic {
		ref.keys = append(ref.keys, path.Leaf)
		ref.desc = schema.Descriptor{Type: schema.TypeUnknown}
		return ref, nil
	}

	col, ok := cur.Column(path.Leaf)
	if !ok {
		return fieldRef{}, fmt.Errorf("%q is not an attribute", path.Leaf)
	}
	ref.desc, _ = cur.Attribute(path.Leaf)
	if ref.column == "" {
		ref.column = col
		return ref, nil
	}
	ref.keys = append(ref.keys, col)
	return ref, nil
}

// textExpr is the string-valued expression for a leaf: the column itself, or
// JSON text extraction when the leaf lives inside a document.
func (c *constraintCompiler) textExpr(ref fieldRef) string {
	if len(ref.keys) > 0 {
		return c.d.JSONText(ref.qualified(), ref.keys)
	}
	return ref.qualified()
}

func (c *constraintCompiler) predicate(ref fieldRef, f Field, v filter.Value) (string, error) {
	switch v.Kind {
	case filter.Text:
		return c.textPredicate(ref, v), nil

	case filter.Select:
		return c.textExpr(ref) + " = " + c.b.Arg(v.Str), nil

	case filter.Boolean:
		want := v.Str == "true"
		if len(ref.keys) > 0 {
			return c.d.JSONBool(ref.qualified(), ref.keys, want), nil
		}
		return ref.qualified() + " = " + c.b.Arg(want), nil

	case filter.MultiSelect, filter.MultiCheckboxes:
		phs := make([]string, len(v.List))
		for i, item := range v.List {
			phs[i] = c.b.Arg(item)
		}
		return c.textExpr(ref) + " IN (" + strings.Join(phs, ", ") + ")", nil

	case filter.NumberRange:
		return c.numberRange(ref, f, v), nil

	case filter.DateRange:
		return c.dateRange(ref, f, v), nil

	case filter.Custom:
		if h, ok := c.reg.Lookup(f.Options.Handler); ok {
			return h.Constraint(c.b, c.textExpr(ref), v)
		}
		log.Warnf("planner: no handler registered for custom kind %q on %s, matching as text", f.Options.Handler, f.Path)
		return c.textPredicate(ref, v), nil

	default:
		log.Warnf("planner: unknown filter kind %q on %s, matching as text", v.Kind, f.Path)
		return c.textPredicate(ref, v), nil
	}
}

func (c *constraintCompiler) textPredicate(ref fieldRef, v filter.Value) string {
	expr := c.textExpr(ref)
	switch v.Op {
	case filter.OpEquals:
		return expr + " = " + c.b.Arg(v.Str)
	case filter.OpStartsWith:
		return c.like(expr, escapeLike(v.Str)+"%")
	default:
		return c.like(expr, "%"+escapeLike(v.Str)+"%")
	}
}

func (c *constraintCompiler) like(expr, pattern string) string {
	return expr + " " + c.d.ILike() + " " + c.b.Arg(pattern) + ` ESCAPE '\'`
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// numberRange renders an inclusive double-bound comparison; a blank side
// leaves that end open. Bounds are parsed before any argument is appended so
// a skipped constraint never strands placeholders.
func (c *constraintCompiler) numberRange(ref fieldRef, f Field, v filter.Value) string {
	var lo, hi float64
	var haveLo, haveHi bool
	var err error
	if v.Min != "" {
		if lo, err = strconv.ParseFloat(v.Min, 64); err != nil {
			log.Warnf("planner: unparsable number bound %q on %s, skipping constraint", v.Min, f.Path)
			return ""
		}
		haveLo = true
	}
	if v.Max != "" {
		if hi, err = strconv.ParseFloat(v.Max, 64); err != nil {
			log.Warnf("planner: unparsable number bound %q on %s, skipping constraint", v.Max, f.Path)
			return ""
		}
		haveHi = true
	}

	expr := ref.qualified()
	if len(ref.keys) > 0 {
		expr = c.d.JSONNumber(ref.qualified(), ref.keys)
	}
	var parts []string
	if haveLo {
		parts = append(parts, expr+" >= "+c.b.Arg(lo))
	}
	if haveHi {
		parts = append(parts, expr+" <= "+c.b.Arg(hi))
	}
	return joinBounds(parts)
}

// dateRange is numberRange for dates. Leaves inside JSON documents compare
// as ISO text, which orders correctly; physical columns compare against
// whatever argument the dialect prefers.
func (c *constraintCompiler) dateRange(ref fieldRef, f Field, v filter.Value) string {
	var loArg, hiArg any
	if v.Min != "" {
		t, err := parseDate(v.Min)
		if err != nil {
			log.Warnf("planner: unparsable date bound %q on %s, skipping constraint", v.Min, f.Path)
			return ""
		}
		loArg = c.d.DateArg(t, v.Min)
	}
	if v.Max != "" {
		t, err := parseDate(v.Max)
		if err != nil {
			log.Warnf("planner: unparsable date bound %q on %s, skipping constraint", v.Max, f.Path)
			return ""
		}
		hiArg = c.d.DateArg(t, v.Max)
	}

	expr := c.textExpr(ref)
	if len(ref.keys) > 0 {
		// ISO text inside the document
		if v.Min != "" {
			loArg = v.Min
		}
		if v.Max != "" {
			hiArg = v.Max
		}
	}
	var parts []string
	if loArg != nil {
		parts = append(parts, expr+" >= "+c.b.Arg(loArg))
	}
	if hiArg != nil {
		parts = append(parts, expr+" <= "+c.b.Arg(hiArg))
	}
	return joinBounds(parts)
}

func joinBounds(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
