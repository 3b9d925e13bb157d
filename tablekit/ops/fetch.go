// Package ops executes compiled queries against a database handle. The count
// query runs separately from the row query so total accounting stays accurate
// while only one page of rows is materialized.
package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nonibytes/tablekit/tablekit/planner"
)

// PageMeta is the 1-based pagination accounting for one fetched page.
// TotalPages never drops below 1; StartIndex and EndIndex are 0 when the
// page has no rows.
type PageMeta struct {
	CurrentPage int
	TotalPages  int
	TotalCount  int
	HasNext     bool
	HasPrevious bool
	StartIndex  int
	EndIndex    int
}

// FetchPage runs the count query, then the row query, and packages the page
// accounting. Rows come back as column-keyed maps; []byte column values are
// converted to string so JSON document columns print and compare sanely.
func FetchPage(ctx context.Context, db *sql.DB, q planner.Query) ([]map[string]any, PageMeta, error) {
	var total int
	if err := db.QueryRowContext(ctx, q.CountSQL, q.Args...).Scan(&total); err != nil {
		return nil, PageMeta{}, fmt.Errorf("count %s: %w", q.Table, err)
	}

	rows, err := db.QueryContext(ctx, q.SelectSQL, q.Args...)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("select %s: %w", q.Table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("scan %s: %w", q.Table, err)
	}

	return out, Paginate(q.Page, q.PageSize, total, len(out)), nil
}

// FetchIDs runs a BuildIDs query and returns the key column values.
func FetchIDs(ctx context.Context, db *sql.DB, q planner.Query) ([]any, error) {
	rows, err := db.QueryContext(ctx, q.SelectSQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("select ids %s: %w", q.Table, err)
	}
	defer rows.Close()

	var ids []any
	for rows.Next() {
		var id any
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id %s: %w", q.Table, err)
		}
		if b, ok := id.([]byte); ok {
			id = string(b)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids %s: %w", q.Table, err)
	}
	return ids, nil
}

// Paginate computes page accounting from a total row count and the number of
// rows actually fetched for the current page.
func Paginate(page, size, total, fetched int) PageMeta {
	if page < 1 {
		page = 1
	}
	totalPages := 1
	if size > 0 {
		totalPages = (total + size - 1) / size
		if totalPages < 1 {
			totalPages = 1
		}
	}
	m := PageMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	if fetched > 0 {
		m.StartIndex = (page-1)*size + 1
		m.EndIndex = m.StartIndex + fetched - 1
	}
	return m
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
