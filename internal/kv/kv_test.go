package kv_test

import (
	"context"
	"errors"
	"testing"

	"taskboard/internal/db"
	"taskboard/internal/kv"
	"taskboard/internal/migrate"
)

const testRedisAddr = "localhost:6379"

func exerciseStore(t *testing.T, s kv.Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("get missing: want ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove twice: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("get removed: want ErrNotFound, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, kv.NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := kv.NewMemory()
	buf := []byte("abc")
	if err := m.Set(context.Background(), "k", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'z'
	got, _ := m.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}

func TestSQLite(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	exerciseStore(t, kv.SQLite{DB: conn})
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	r, err := kv.NewRedis(ctx, kv.RedisOptions{Addr: testRedisAddr, Prefix: "taskboard-test:"})
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	defer r.Close()
	exerciseStore(t, r)
}
