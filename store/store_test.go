package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/shoprec/core"
)

// exerciseStore 对任一后端跑同一组行为断言。
func exerciseStore(t *testing.T, s core.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(missing) error = %v, want ErrStoreNotFound", err)
	}

	if err := s.Set(ctx, "recommendation-model", []byte("v1")); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	got, err := s.Get(ctx, "recommendation-model")
	if err != nil || !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("Get = %q, %v; want v1", got, err)
	}

	// 覆盖写入
	if err := s.Set(ctx, "recommendation-model", []byte("v2")); err != nil {
		t.Fatalf("Set overwrite error = %v", err)
	}
	got, _ = s.Get(ctx, "recommendation-model")
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("after overwrite Get = %q, want v2", got)
	}

	if err := s.Delete(ctx, "recommendation-model"); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if _, err := s.Get(ctx, "recommendation-model"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete error = %v, want ErrStoreNotFound", err)
	}
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore_ValueIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'x'
	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated through caller slice: %q", got)
	}
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestBadgerStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore error = %v", err)
	}
	if err := s.Set(ctx, "slot", []byte("persisted")); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	s, err = NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "slot")
	if err != nil || string(got) != "persisted" {
		t.Errorf("after reopen Get = %q, %v", got, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis test")
	}
	s, err := NewRedisStore(context.Background(), addr, "", 0, "shoprec-test:")
	if err != nil {
		t.Fatalf("NewRedisStore error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{name: "default memory", cfg: Config{}, want: "memory"},
		{name: "badger", cfg: Config{Driver: DriverBadger, Path: t.TempDir()}, want: "badger"},
		{name: "sqlite", cfg: Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "x.db")}, want: "sqlite"},
		{name: "sqlite without path", cfg: Config{Driver: DriverSQLite}, wantErr: true},
		{name: "unknown", cfg: Config{Driver: "etcd"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open error = %v", err)
			}
			defer s.Close()
			if s.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.want)
			}
		})
	}
}
