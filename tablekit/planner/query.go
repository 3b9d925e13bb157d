package planner

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
	"github.com/nonibytes/tablekit/tablekit/schema"
	"github.com/nonibytes/tablekit/tablekit/state"
	"github.com/nonibytes/tablekit/tablekit/storage"
	"github.com/nonibytes/tablekit/tablekit/storage/sqlbuilder"
)

// DefaultPageSize applies when a view does not configure one.
const DefaultPageSize = 25

// Query is one compiled interaction: the paged row query and the count query
// that shares its WHERE clause and arguments.
type Query struct {
	SelectSQL string
	CountSQL  string
	Args      []any
	Table     string
	Page      int
	PageSize  int
}

// SortError rejects a sort list whose field does not resolve on the schema.
// A silently dropped sort would return misleadingly ordered rows, so the
// whole query fails instead.
type SortError struct {
	Field  string
	Reason string
}

func (e *SortError) Error() string {
	return fmt.Sprintf("cannot sort by %q: %s", e.Field, e.Reason)
}

// BuildQuery compiles filters, sort and pagination into a Query. Filters
// apply before sort, sort before LIMIT/OFFSET. Every sort field is validated
// against the schema up front; the first invalid one rejects the query.
func BuildQuery(d storage.Dialect, rel schema.Relation, fields []Field, st state.State, pageSize int, reg *filter.Registry) (Query, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := st.Page
	if page < 1 {
		page = 1
	}

	for _, e := range st.Sort {
		if _, err := schema.Resolve(rel, e.Field); err != nil {
			return Query{}, &SortError{Field: e.Field.String(), Reason: err.Error()}
		}
	}

	b := sqlbuilder.New(d.PlaceholderStyle())
	where, err := buildWhere(b, d, rel, fields, st, reg)
	if err != nil {
		return Query{}, err
	}
	joins, orderBy, err := buildSort(d, rel, st.Sort)
	if err != nil {
		return Query{}, err
	}

	from := rel.Table() + " " + rootAlias

	var sel strings.Builder
	sel.WriteString("SELECT " + rootAlias + ".* FROM " + from)
	for _, j := range joins {
		sel.WriteString(" " + j)
	}
	if where != "" {
		sel.WriteString(" WHERE " + where)
	}
	sel.WriteString(" ORDER BY " + orderBy)
	fmt.Fprintf(&sel, " LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	count := "SELECT COUNT(*) FROM " + from
	if where != "" {
		count += " WHERE " + where
	}

	return Query{
		SelectSQL: sel.String(),
		CountSQL:  count,
		Args:      b.Args(),
		Table:     rel.Table(),
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// BuildIDs compiles the same filters into an unpaged, unsorted query that
// selects only the root key column, for bulk operations over everything the
// current filters match.
func BuildIDs(d storage.Dialect, rel schema.Relation, fields []Field, st state.State, reg *filter.Registry) (Query, error) {
	b := sqlbuilder.New(d.PlaceholderStyle())
	where, err := buildWhere(b, d, rel, fields, st, reg)
	if err != nil {
		return Query{}, err
	}

	key := rootAlias + "." + rel.Key()
	sql := "SELECT " + key + " FROM " + rel.Table() + " " + rootAlias
	if where != "" {
		sql += " WHERE " + where
	}
	sql += " ORDER BY " + key + " ASC"

	return Query{SelectSQL: sql, Args: b.Args(), Table: rel.Table()}, nil
}

// buildWhere conjoins one constraint per stored filter value, in field
// declaration order so the SQL is deterministic. A column-supplied custom
// constraint takes precedence over the standard per-kind one.
func buildWhere(b *sqlbuilder.Builder, d storage.Dialect, rel schema.Relation, fields []Field, st state.State, reg *filter.Registry) (string, error) {
	c := &constraintCompiler{b: b, d: d, reg: reg}
	known := make(map[string]bool, len(fields))
	var parts []string
	for _, f := range fields {
		key := f.Path.String()
		known[key] = true
		v, ok := st.Filters[key]
		if !ok {
			continue
		}
		var cons string
		var err error
		if f.Constraint != nil {
			cons, err = f.Constraint(b, d, rel, rootAlias, f.Path, v)
		} else {
			cons, err = c.compile(rel, rootAlias, f.Path, f, v)
		}
		if err != nil {
			return "", err
		}
		if cons != "" {
			parts = append(parts, cons)
		}
	}
	for key := range st.Filters {
		if !known[key] {
			log.Warnf("planner: ignoring filter on %q: no such field", key)
		}
	}
	return strings.Join(parts, " AND "), nil
}

// buildSort renders the LEFT JOIN chain for relationship sorts and the ORDER
// BY terms. Joins are shared between sort entries that traverse the same
// relationship prefix; the root key is always the final tiebreaker so paging
// stays deterministic.
func buildSort(d storage.Dialect, rel schema.Relation, sort []state.SortEntry) ([]string, string, error) {
	type joined struct {
		alias string
		rel   schema.Relation
	}
	seen := map[string]joined{}
	var joins []string
	var terms []string
	counter := 0

	for _, e := range sort {
		cur := rel
		alias := rootAlias
		prefix := ""
		segs := e.Field.Segments
		i := 0
		for ; i < len(segs); i++ {
			r, ok := segs[i].(fieldpath.Relationship)
			if !ok {
				break
			}
			prefix += r.Name + "."
			if j, ok := seen[prefix]; ok {
				alias, cur = j.alias, j.rel
				continue
			}
			join, ok := cur.JoinTo(r.Name)
			if !ok {
				return nil, "", &SortError{Field: e.Field.String(), Reason: fmt.Sprintf("%q is not a relationship", r.Name)}
			}
			next := fmt.Sprintf("sort_%d", counter)
			counter++
			joins = append(joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.%s = %s.%s",
				join.Table, next, next, join.ForeignKey, alias, join.LocalKey))
			seen[prefix] = joined{next, join.Schema}
			alias, cur = next, join.Schema
		}

		rest := fieldpath.FieldPath{Segments: segs[i:], Leaf: e.Field.Leaf}
		ref, err := locate(cur, alias, rest)
		if err != nil {
			return nil, "", &SortError{Field: e.Field.String(), Reason: err.Error()}
		}
		expr := ref.qualified()
		if len(ref.keys) > 0 {
			switch ref.desc.Type {
			case schema.TypeInteger, schema.TypeDecimal, schema.TypeFloat:
				expr = d.JSONNumber(ref.qualified(), ref.keys)
			default:
				expr = d.JSONText(ref.qualified(), ref.keys)
			}
		}
		dir := " ASC"
		if e.Desc {
			dir = " DESC"
		}
		terms = append(terms, expr+dir)
	}

	terms = append(terms, rootAlias+"."+rel.Key()+" ASC")
	return joins, strings.Join(terms, ", "), nil
}
