// Package tablekit turns a declarative table definition — a schema, a list
// of columns, a data source — into executable page queries and a URL-safe
// serialization of the interaction state (filters, sort, page).
//
// A View is built once per table definition and is read-only afterwards;
// per-request work (decoding parameters, fetching a page) shares it freely.
package tablekit

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
	"github.com/nonibytes/tablekit/tablekit/ops"
	"github.com/nonibytes/tablekit/tablekit/planner"
	"github.com/nonibytes/tablekit/tablekit/schema"
	"github.com/nonibytes/tablekit/tablekit/state"
	"github.com/nonibytes/tablekit/tablekit/storage"
)

// PageMeta is the pagination accounting a fetched page comes with.
type PageMeta = ops.PageMeta

// Column declares one table column. Field is the field-path text; Kind and
// Options, when set, override what inference would pick from the schema.
// Constraint replaces the standard SQL predicate for this column's filter.
type Column struct {
	Field      string
	Label      string
	Filterable bool
	Sortable   bool
	Kind       filter.Kind
	Options    filter.Options
	Constraint planner.ConstraintFunc
}

// ResolvedColumn is a Column after configuration: parsed path, resolved
// descriptor, inferred (or overridden) filter kind and options.
type ResolvedColumn struct {
	Field      string
	Label      string
	Path       fieldpath.FieldPath
	Kind       filter.Kind
	Options    filter.Options
	Filterable bool
	Sortable   bool
	Constraint planner.ConstraintFunc
	Descriptor schema.Descriptor
	Found      bool
}

// FilterHint is what the UI layer needs to render one filter input.
type FilterHint struct {
	Field   string
	Label   string
	Kind    filter.Kind
	Options filter.Options
}

// Config assembles a View. Schema and Adapter are required; a nil Registry
// means no custom filter kinds; PageSize defaults to planner.DefaultPageSize.
type Config struct {
	Schema   schema.Relation
	Columns  []Column
	Adapter  storage.Adapter
	Registry *filter.Registry
	PageSize int
}

// View is one configured table definition. Configuration problems fail
// loudly here, at setup; per-request input degrades gracefully later.
type View struct {
	rel      schema.Relation
	adapter  storage.Adapter
	registry *filter.Registry
	pageSize int
	columns  []ResolvedColumn

	stateFields   []state.Field
	plannerFields []planner.Field

	mu sync.Mutex
	db *sql.DB
}

// NewView validates the configuration and resolves every column. A column
// path with bad syntax is a hard error; a path that does not resolve on the
// schema is kept with the text-filter fallback, matching request-time
// degradation.
func NewView(cfg Config) (*View, error) {
	if cfg.Schema == nil {
		return nil, ConfigError("schema is required")
	}
	if cfg.Adapter == nil {
		return nil, ConfigError("adapter is required")
	}
	if len(cfg.Columns) == 0 {
		return nil, ConfigError("at least one column is required")
	}
	if v, ok := cfg.Schema.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, Wrap(ErrSchema, "invalid schema", err)
		}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = planner.DefaultPageSize
	}

	v := &View{
		rel:      cfg.Schema,
		adapter:  cfg.Adapter,
		registry: cfg.Registry,
		pageSize: pageSize,
	}

	seen := map[string]bool{}
	for _, col := range cfg.Columns {
		path, err := fieldpath.Parse(col.Field)
		if err != nil {
			return nil, &Error{Kind: ErrSyntax, Field: col.Field, Message: "invalid field path", Cause: err}
		}
		key := path.String()
		if seen[key] {
			return nil, ConfigError("duplicate column " + key)
		}
		seen[key] = true

		desc, rerr := schema.Resolve(cfg.Schema, path)
		found := rerr == nil
		if !found {
			log.Warnf("tablekit: column %s does not resolve on %s: %v", key, cfg.Schema.Table(), rerr)
		}
		kind, opts := filter.Infer(path, desc, found, filter.Override{Kind: col.Kind, Options: col.Options})
		if kind == filter.Custom {
			if _, ok := cfg.Registry.Lookup(opts.Handler); !ok {
				log.Warnf("tablekit: column %s uses custom kind %q with no registered handler", key, opts.Handler)
			}
		}

		label := col.Label
		if label == "" {
			label = path.Humanize()
		}
		rc := ResolvedColumn{
			Field:      key,
			Label:      label,
			Path:       path,
			Kind:       kind,
			Options:    opts,
			Filterable: col.Filterable,
			Sortable:   col.Sortable,
			Constraint: col.Constraint,
			Descriptor: desc,
			Found:      found,
		}
		v.columns = append(v.columns, rc)
		v.stateFields = append(v.stateFields, state.Field{
			Path:       path,
			Kind:       kind,
			Options:    opts,
			Filterable: col.Filterable,
			Sortable:   col.Sortable,
		})
		v.plannerFields = append(v.plannerFields, planner.Field{
			Path:       path,
			Kind:       kind,
			Options:    opts,
			Sortable:   col.Sortable,
			Constraint: col.Constraint,
		})
	}

	return v, nil
}

// Columns returns the resolved column list in declaration order.
func (v *View) Columns() []ResolvedColumn {
	return v.columns
}

// FilterHints returns the render inputs for every filterable column.
func (v *View) FilterHints() []FilterHint {
	var hints []FilterHint
	for _, c := range v.columns {
		if !c.Filterable {
			continue
		}
		hints = append(hints, FilterHint{Field: c.Field, Label: c.Label, Kind: c.Kind, Options: c.Options})
	}
	return hints
}

// DecodeParams rebuilds interaction state from untrusted URL or form
// parameters. Unknown keys are ignored; malformed values degrade.
func (v *View) DecodeParams(params map[string]string) state.State {
	return state.Decode(params, v.stateFields, v.registry)
}

// EncodeState serializes interaction state back to URL parameters, the
// inverse of DecodeParams up to page-1/empty-sort omission.
func (v *View) EncodeState(st state.State) map[string]string {
	return state.Encode(st, v.stateFields, v.registry)
}

// ToggleSort advances the sort cycle for a column. The field must name a
// sortable column: sorting is also reachable from untrusted input, and an
// unknown sort surfaces as an error rather than a silently wrong ordering.
func (v *View) ToggleSort(st state.State, field string) (state.State, error) {
	path, err := fieldpath.Parse(field)
	if err != nil {
		return st, &Error{Kind: ErrSyntax, Field: field, Message: "invalid field path", Cause: err}
	}
	for _, c := range v.columns {
		if c.Path.Equal(path) {
			if !c.Sortable {
				return st, InvalidSortError(field, "column is not sortable")
			}
			return st.ToggleSort(path), nil
		}
	}
	return st, InvalidSortError(field, "no such column")
}

// Plan compiles the state into SQL without executing it.
func (v *View) Plan(st state.State) (planner.Query, error) {
	q, err := planner.BuildQuery(v.adapter.Dialect(), v.rel, v.plannerFields, st, v.pageSize, v.registry)
	if err != nil {
		return planner.Query{}, v.wrapPlanError(err)
	}
	return q, nil
}

// PlanIDs compiles the state's filters into the bulk key query.
func (v *View) PlanIDs(st state.State) (planner.Query, error) {
	q, err := planner.BuildIDs(v.adapter.Dialect(), v.rel, v.plannerFields, st, v.registry)
	if err != nil {
		return planner.Query{}, v.wrapPlanError(err)
	}
	return q, nil
}

// Fetch executes one page: count first, then rows. Cancellation and timeouts
// ride on ctx into both calls.
func (v *View) Fetch(ctx context.Context, st state.State) ([]map[string]any, PageMeta, error) {
	q, err := v.Plan(st)
	if err != nil {
		return nil, PageMeta{}, err
	}
	db, err := v.ensureDB(ctx)
	if err != nil {
		return nil, PageMeta{}, err
	}
	rows, meta, err := ops.FetchPage(ctx, db, q)
	if err != nil {
		return nil, PageMeta{}, ExecutionError(v.rel.Table(), err)
	}
	return rows, meta, nil
}

// FetchIDs executes the bulk key query: every root key the current filters
// match, without sort or pagination.
func (v *View) FetchIDs(ctx context.Context, st state.State) ([]any, error) {
	q, err := v.PlanIDs(st)
	if err != nil {
		return nil, err
	}
	db, err := v.ensureDB(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := ops.FetchIDs(ctx, db, q)
	if err != nil {
		return nil, ExecutionError(v.rel.Table(), err)
	}
	return ids, nil
}

// Close releases the database handle and the adapter.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var err error
	if v.db != nil {
		err = v.db.Close()
		v.db = nil
	}
	if cerr := v.adapter.Close(); err == nil {
		err = cerr
	}
	return err
}

func (v *View) ensureDB(ctx context.Context) (*sql.DB, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.db != nil {
		return v.db, nil
	}
	db, err := v.adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to "+string(v.adapter.Backend()), err)
	}
	v.db = db
	return db, nil
}

func (v *View) wrapPlanError(err error) error {
	var se *planner.SortError
	if errors.As(err, &se) {
		return InvalidSortError(se.Field, se.Reason)
	}
	return Wrap(ErrExecution, "compile query for "+v.rel.Table(), err)
}
