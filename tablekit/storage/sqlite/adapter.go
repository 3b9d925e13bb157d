// Package sqlite adapts views to a SQLite database. Both the pure-Go
// modernc.org/sqlite driver ("sqlite", the default) and the cgo
// mattn/go-sqlite3 driver ("sqlite3") are supported; the caller imports the
// one it wants.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nonibytes/tablekit/tablekit/storage"
	"github.com/nonibytes/tablekit/tablekit/storage/sqlbuilder"
)

type Adapter struct {
	Path       string
	DriverName string
}

func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite"}
}

func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) Dialect() storage.Dialect {
	return Dialect{}
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

// dsn appends the busy-timeout and foreign-key settings in the syntax each
// driver understands.
func (a *Adapter) dsn() string {
	sep := "?"
	if strings.Contains(a.Path, "?") {
		sep = "&"
	}
	if a.DriverName == "sqlite3" {
		return a.Path + sep + "_busy_timeout=5000&_foreign_keys=on"
	}
	return a.Path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Dialect renders SQLite's SQL fragments. JSON documents live in TEXT
// columns and are reached through json_extract.
type Dialect struct{}

func (Dialect) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (Dialect) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

// ILike returns LIKE: SQLite's LIKE is case-insensitive for ASCII.
func (Dialect) ILike() string {
	return "LIKE"
}

func (Dialect) JSONText(column string, keys []string) string {
	return "json_extract(" + column + ", '$." + strings.Join(keys, ".") + "')"
}

// JSONNumber is json_extract as well: it yields the native JSON type, which
// compares numerically against numeric arguments.
func (d Dialect) JSONNumber(column string, keys []string) string {
	return d.JSONText(column, keys)
}

// JSONBool compares against the 0/1 integers json_extract yields for JSON
// booleans.
func (d Dialect) JSONBool(column string, keys []string, want bool) string {
	if want {
		return d.JSONText(column, keys) + " = 1"
	}
	return d.JSONText(column, keys) + " = 0"
}

// DateArg keeps the ISO text form: SQLite date columns are TEXT and ISO-8601
// compares correctly as text.
func (Dialect) DateArg(t time.Time, raw string) any {
	return raw
}
