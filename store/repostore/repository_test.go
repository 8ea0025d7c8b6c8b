package repostore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
)

type member struct {
	bun.BaseModel `bun:"table:members"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Status string `bun:"status,notnull"`
	Score  int64  `bun:"score,notnull"`
}

var memberMapper = Mapper[*member]{
	ToFields: func(m *member) store.Fields {
		return store.Fields{"id": m.ID, "status": m.Status, "score": m.Score}
	},
	FromFields: func(f store.Fields) (*member, error) {
		m := &member{}
		m.ID, _ = store.AsID(f["id"])
		m.Status, _ = f["status"].(string)
		m.Score, _ = store.AsID(f["score"])
		return m, nil
	},
}

func newMemberStore(t *testing.T) *Store[*member] {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ddl := `CREATE TABLE members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		status TEXT NOT NULL,
		score INTEGER NOT NULL
	)`
	if _, err := db.ExecContext(context.Background(), ddl); err != nil {
		t.Fatalf("create table: %v", err)
	}

	repo := repository.NewRepository[*member](db, repository.ModelHandlers[*member]{
		NewRecord:     func() *member { return &member{} },
		GetID:         func(*member) uuid.UUID { return uuid.Nil },
		SetID:         func(*member, uuid.UUID) {},
		GetIdentifier: func() string { return "id" },
	})

	s, err := New[*member](repo, memberMapper, "members", "id")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestStore_RepositoryListsPastDefaultPage(t *testing.T) {
	ctx := context.Background()
	s := newMemberStore(t)

	const total = 30
	for i := 1; i <= total; i++ {
		id, err := s.Create(ctx, store.Fields{"status": "a", "score": int64(i)})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if id != store.ID(i) {
			t.Fatalf("Create() id = %d, want %d", id, i)
		}
	}

	ids, err := s.GetIDs(ctx, store.Conditions{"status": "a"}, store.All, keys.ParseOrder("-score"))
	if err != nil {
		t.Fatalf("GetIDs() error = %v", err)
	}
	count, err := s.CalcCount(ctx, store.Conditions{"status": "a"})
	if err != nil {
		t.Fatalf("CalcCount() error = %v", err)
	}
	if len(ids) != total || count != total {
		t.Fatalf("GetIDs() returned %d ids and CalcCount() %d, want %d", len(ids), count, total)
	}
	if ids[0] != total || ids[total-1] != 1 {
		t.Errorf("GetIDs() order = %d..%d, want %d..1", ids[0], ids[total-1], total)
	}

	tail, err := s.GetIDs(ctx, store.Conditions{"status": "a"}, store.Window{Start: 2, Limit: store.Unbounded}, keys.ParseOrder("-score"))
	if err != nil {
		t.Fatalf("GetIDs() with offset error = %v", err)
	}
	if len(tail) != total-2 || tail[0] != total-2 {
		t.Errorf("GetIDs() with offset = %d ids starting at %v, want %d starting at %d", len(tail), tail, total-2, total-2)
	}

	page, err := s.GetIDs(ctx, store.Conditions{"status": "a"}, store.Window{Start: 5, Limit: 3}, keys.ParseOrder("score"))
	if err != nil {
		t.Fatalf("GetIDs() page error = %v", err)
	}
	if len(page) != 3 || page[0] != 6 || page[2] != 8 {
		t.Errorf("GetIDs() page = %v, want [6 7 8]", page)
	}
}

func TestStore_RepositoryWrites(t *testing.T) {
	ctx := context.Background()
	s := newMemberStore(t)

	id, err := s.Create(ctx, store.Fields{"status": "a", "score": int64(3)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if n, err := s.UpdateRow(ctx, id, store.Fields{"status": "b"}); err != nil || n != 1 {
		t.Fatalf("UpdateRow() = %d, %v", n, err)
	}
	row, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if row["status"] != "b" || row["score"] != int64(3) {
		t.Errorf("Get() after update = %v", row)
	}

	if n, err := s.Delete(ctx, id); err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v", n, err)
	}
	if _, err := s.Get(ctx, id); !store.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
}
