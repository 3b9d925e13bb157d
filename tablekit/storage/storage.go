// Package storage abstracts the database engines a view can execute against.
// An Adapter owns the connection lifecycle; its Dialect renders the SQL
// fragments that differ between engines, so the planner assembles one query
// shape and stays engine-agnostic.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/nonibytes/tablekit/tablekit/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Adapter abstracts database-specific connection handling.
type Adapter interface {
	Backend() Backend
	Dialect() Dialect

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error
}

// Dialect renders the engine-specific SQL fragments the planner needs.
// Identifiers passed in are schema-validated names, never raw user input.
type Dialect interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle

	// ILike is the case-insensitive pattern-match operator: sqlite LIKE is
	// already case-insensitive for ASCII, postgres needs ILIKE.
	ILike() string

	// JSONText renders text extraction at the key path inside a JSON
	// document column.
	JSONText(column string, keys []string) string

	// JSONNumber renders numeric extraction at the key path inside a JSON
	// document column, comparable against numeric arguments.
	JSONNumber(column string, keys []string) string

	// JSONBool renders an equality predicate for a boolean stored at the key
	// path inside a JSON document column. The wanted value is structural, so
	// no placeholder is allocated.
	JSONBool(column string, keys []string, want bool) string

	// DateArg converts a parsed date bound into the argument the engine
	// compares best against a physical date column: sqlite keeps the ISO
	// text (dates live in TEXT columns), postgres binds time.Time.
	DateArg(t time.Time, raw string) any
}
