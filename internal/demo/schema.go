package demo

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/ormcache"
)

func userSchema() ormcache.Schema {
	return ormcache.Schema{
		Name:    "User",
		Version: "v1",
		Primary: keys.NewField("id", keys.Ascending),
		Fields: []keys.Field{
			keys.NewField("name", keys.NotIndexed),
			keys.NewField("email", keys.IndexOnly),
			keys.NewField("status", keys.IndexOnly).WithDefault("active"),
			keys.NewField("score", keys.AscendingAndDescending).WithDefault(int64(0)),
		},
		Combinations: [][]string{{"status", "score"}},
	}
}

const sqliteUsersDDL = `CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'active',
	score INTEGER NOT NULL DEFAULT 0
)`

const postgresUsersDDL = `CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'active',
	score BIGINT NOT NULL DEFAULT 0
)`

func migrate(ctx context.Context, db *bun.DB) error {
	ddl := sqliteUsersDDL
	if db.Dialect().Name() == dialect.PG {
		ddl = postgresUsersDDL
	}
	_, err := db.ExecContext(ctx, ddl)
	return err
}
