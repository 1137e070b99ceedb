package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/store"
)

func TestOpenStore_ClosedByCloseAll(t *testing.T) {
	t.Cleanup(func() { appCfg, closers = nil, nil })

	cfg := config.DefaultAppConfig()
	cfg.Store = store.Config{Driver: store.DriverSQLite, Path: filepath.Join(t.TempDir(), "shoprec.db")}
	appCfg = &cfg

	ctx := context.Background()
	s := openStore(ctx)
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if len(closers) != 1 {
		t.Fatalf("closers = %d, want 1", len(closers))
	}

	closeAll()
	if len(closers) != 0 {
		t.Errorf("closers = %d after closeAll, want 0", len(closers))
	}
	if _, err := s.Get(ctx, "k"); err == nil {
		t.Error("Get after closeAll succeeded, want closed store error")
	}
}

func TestCloseAll_ReverseOrder(t *testing.T) {
	t.Cleanup(func() { closers = nil })

	var order []int
	onExit(func() error { order = append(order, 1); return nil })
	onExit(func() error { order = append(order, 2); return errors.New("already closed") })
	onExit(func() error { order = append(order, 3); return nil })

	closeAll()
	closeAll()

	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("close order = %v, want [3 2 1] once", order)
	}
}
