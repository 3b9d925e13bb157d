// Package postgres adapts views to a PostgreSQL database through the pgx
// driver's database/sql shim.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/nonibytes/tablekit/tablekit/storage"
	"github.com/nonibytes/tablekit/tablekit/storage/sqlbuilder"
)

type Adapter struct {
	DSN    string
	Schema string // pinned via search_path when set
}

func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) Dialect() storage.Dialect { return Dialect{} }

func (a *Adapter) Close() error { return nil }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteIdent(ident string) string {
	// ident is validated to contain no quotes; safe to wrap
	return `"` + ident + `"`
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	if a.Schema != "" {
		if !schemaNameRe.MatchString(a.Schema) {
			return nil, fmt.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
		}
		// Include public as a fallback for built-ins; schema is first.
		if cfg.RuntimeParams == nil {
			cfg.RuntimeParams = make(map[string]string)
		}
		cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", quoteIdent(a.Schema))
	}

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Dialect renders PostgreSQL's SQL fragments. JSON documents live in json or
// jsonb columns and are reached through the #>> path operator.
type Dialect struct{}

func (Dialect) Backend() storage.Backend {
	return storage.BackendPostgres
}

func (Dialect) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderDollar
}

func (Dialect) ILike() string {
	return "ILIKE"
}

func (Dialect) JSONText(column string, keys []string) string {
	return column + " #>> '{" + strings.Join(keys, ",") + "}'"
}

func (d Dialect) JSONNumber(column string, keys []string) string {
	return "(" + d.JSONText(column, keys) + ")::numeric"
}

func (d Dialect) JSONBool(column string, keys []string, want bool) string {
	if want {
		return "(" + d.JSONText(column, keys) + ")::boolean = TRUE"
	}
	return "(" + d.JSONText(column, keys) + ")::boolean = FALSE"
}

// DateArg binds time.Time: postgres date and timestamp columns compare
// natively against it.
func (Dialect) DateArg(t time.Time, raw string) any {
	return t
}
