package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-orm-cache/cache"
	"github.com/goliatone/go-orm-cache/internal/logging"
	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/ormcache"
	"github.com/goliatone/go-orm-cache/pkg/di"
	"github.com/goliatone/go-orm-cache/store"
	"github.com/goliatone/go-orm-cache/store/bunstore"
)

// Supported cache backends.
const (
	backendMemory = "memory"
	backendRedis  = "redis"
	backendBadger = "badger"
)

type runOptions struct {
	driver     string
	dsn        string
	backend    string
	redisAddr  string
	badgerDir  string
	users      int
	ttl        time.Duration
	logLevel   string
	logQueries bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed a users table and query it through the cache",
		Long: `Seed a users table, then run list, count and object reads through the
cache before and after a save and a delete.

Without --dsn the table lives in a private in-memory SQLite database.

Examples:
  # In-memory SQLite with the in-process cache
  ormcache-demo run

  # Postgres with Redis
  ormcache-demo run --driver postgres --dsn postgres://localhost/demo?sslmode=disable \
    --backend redis --redis-addr localhost:6379`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.driver, "driver", bunstore.DriverSQLite, "Database driver (sqlite3 or postgres)")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "Database DSN")
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", backendMemory, "Cache backend (memory, redis or badger)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().StringVar(&opts.badgerDir, "badger-dir", "", "Badger directory (in-memory when empty)")
	cmd.Flags().IntVarP(&opts.users, "users", "n", 20, "Number of users to seed")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "Cache entry lifetime")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.logQueries, "log-queries", false, "Log every SQL statement at debug level")

	return cmd
}

func (a *App) run(ctx context.Context, opts *runOptions) error {
	if _, err := logging.ParseLevel(opts.logLevel); err != nil {
		return err
	}
	logging.Init(logging.Config{Level: opts.logLevel, Format: "console", Output: a.stderr})

	container, err := a.container(opts)
	if err != nil {
		return fmt.Errorf("failed to set up cache: %w", err)
	}
	defer container.Close()

	db, err := bunstore.OpenConfig(ctx, a.dbConfig(opts))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	users, err := container.NewManager(userSchema(), bunstore.New(db, "users", "id"))
	if err != nil {
		return err
	}

	created, err := a.seed(ctx, users, opts.users)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.stdout, "Seeded %d users\n", len(created))

	top := ormcache.Query{
		Conditions: store.Conditions{"status": "active"},
		OrderBy:    keys.ParseOrder("-score"),
		Limit:      5,
	}
	if err := a.report(ctx, users, "cold", top); err != nil {
		return err
	}
	if err := a.report(ctx, users, "warm", top); err != nil {
		return err
	}

	if len(created) > 0 {
		first := created[0]
		if err := first.Set("status", "banned"); err != nil {
			return err
		}
		if _, err := users.Save(ctx, first); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "Banned user %d\n", first.ID())

		last := created[len(created)-1]
		if _, err := users.Delete(ctx, last); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "Deleted user %d\n", last.ID())
	}

	if err := a.report(ctx, users, "after writes", top); err != nil {
		return err
	}

	stats := users.CacheStats()
	_, _ = fmt.Fprintf(a.stdout, "Cache hits=%d misses=%d\n", stats.Hits, stats.Misses)
	return nil
}

func (a *App) container(opts *runOptions) (*di.Container, error) {
	managerConfig := di.WithManagerConfig(ormcache.Config{TTL: opts.ttl})

	switch opts.backend {
	case backendMemory:
		cfg := cache.DefaultConfig()
		cfg.TTL = opts.ttl
		return di.NewContainer(cfg, managerConfig)
	case backendRedis:
		cfg := cache.DefaultRedisConfig()
		cfg.Address = opts.redisAddr
		backend, err := cache.NewRedisBackend(cfg)
		if err != nil {
			return nil, err
		}
		return di.NewContainerWithBackend(backend, managerConfig)
	case backendBadger:
		backend, err := cache.NewBadgerBackend(cache.BadgerConfig{Dir: opts.badgerDir})
		if err != nil {
			return nil, err
		}
		return di.NewContainerWithBackend(backend, managerConfig)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.backend)
	}
}

func (a *App) dbConfig(opts *runOptions) bunstore.Config {
	cfg := bunstore.DefaultConfig()
	if opts.dsn == "" && opts.driver == bunstore.DriverSQLite {
		cfg = bunstore.InMemoryConfig()
		cfg.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}
	cfg.Driver = opts.driver
	if opts.dsn != "" {
		cfg.DSN = opts.dsn
	}
	cfg.LogQueries = opts.logQueries
	return cfg
}

func (a *App) seed(ctx context.Context, users *ormcache.Manager, n int) ([]*ormcache.Record, error) {
	out := make([]*ormcache.Record, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New()
		rec, err := users.Create(ctx, store.Fields{
			"name":  fmt.Sprintf("user %d", i+1),
			"email": id.String() + "@example.com",
			"score": int64((i * 37) % 100),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *App) report(ctx context.Context, users *ormcache.Manager, label string, q ormcache.Query) error {
	start := time.Now()
	recs, err := users.GetsBy(ctx, q)
	if err != nil {
		return err
	}
	count, err := users.CountBy(ctx, q.Conditions)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.stdout, "[%s] %d of %d active users in %s\n", label, len(recs), count, time.Since(start).Round(time.Microsecond))
	for _, rec := range recs {
		_, _ = fmt.Fprintf(a.stdout, "  #%-4d %-10v score=%v\n", rec.ID(), rec.Get("name"), rec.Get("score"))
	}
	return nil
}
