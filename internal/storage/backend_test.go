package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type kv interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

func backendContract(t *testing.T, b kv) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "projects/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, key := range []string{"projects/b.json", "projects/a.json", "active-project"} {
		if err := b.Put(ctx, key, []byte("v-"+key)); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	if err := b.Put(ctx, "projects/a.json", []byte("updated")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := b.Get(ctx, "projects/a.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "updated" {
		t.Fatalf("unexpected payload %q", data)
	}

	keys, err := b.Keys(ctx, "projects/")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "projects/a.json" || keys[1] != "projects/b.json" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := b.Delete(ctx, "projects/a.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, "projects/a.json"); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
	if _, err := b.Get(ctx, "projects/a.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	keys, err = b.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "active-project" {
		t.Fatalf("unexpected keys after delete %v", keys)
	}

	if err := b.Put(ctx, "../escape", []byte("x")); err == nil {
		t.Fatalf("expected invalid key error")
	}
}

func TestFilesBackend(t *testing.T) {
	f, err := NewFiles(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("NewFiles: %v", err)
	}
	backendContract(t, f)
}

func TestFilesRequiresDir(t *testing.T) {
	if _, err := NewFiles(""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "studio.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	backendContract(t, s)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "studio.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Put(ctx, "active-project", []byte("p1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	data, err := s.Get(ctx, "active-project")
	if err != nil || string(data) != "p1" {
		t.Fatalf("expected persisted value, got %q %v", data, err)
	}
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	backendContract(t, r)
	if !mr.Exists("studio:active-project") {
		t.Fatalf("expected namespaced key in redis, got %v", mr.Keys())
	}
}

func TestRedisPingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedis(context.Background(), RedisOptions{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure")
	}
}
