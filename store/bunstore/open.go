package bunstore

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	goerrors "github.com/goliatone/go-errors"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-orm-cache/internal/logging"
)

// Open validates cfg, connects, applies SQLite pragmas and returns a bun
// handle for the configured dialect.
func Open(ctx context.Context, opts ...Option) (*bun.DB, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return OpenConfig(ctx, cfg)
}

// OpenConfig is Open with an explicit configuration.
func OpenConfig(ctx context.Context, cfg Config) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, connectionError(err, cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	var dialect schema.Dialect
	switch cfg.Driver {
	case DriverPostgres:
		dialect = pgdialect.New()
	default:
		dialect = sqlitedialect.New()
		if err := applyPragmas(ctx, sqldb, cfg); err != nil {
			_ = sqldb.Close()
			return nil, err
		}
	}

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, connectionError(err, cfg.Driver)
	}

	db := bun.NewDB(sqldb, dialect)
	if cfg.LogQueries {
		db.AddQueryHook(&queryLogger{logger: logging.Get()})
	}
	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, cfg Config) error {
	var pragmas []string
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode="+cfg.JournalMode)
	}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, "PRAGMA busy_timeout="+strconv.Itoa(cfg.BusyTimeout))
	}
	pragmas = append(pragmas, "PRAGMA foreign_keys=ON")

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to apply sqlite pragma").
				WithMetadata(map[string]any{"pragma": pragma})
		}
	}
	return nil
}

func connectionError(err error, driver string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to connect to database").
		WithMetadata(map[string]any{"driver": driver})
}

// queryLogger writes every executed statement to the debug log.
type queryLogger struct {
	logger *bolt.Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	logging.With(h.logger.Debug(),
		logging.Component("bunstore"),
		logging.Operation(event.Operation()),
		logging.Elapsed(time.Since(event.StartTime)),
		logging.ErrorField(event.Err),
	).Msg(event.Query)
}
