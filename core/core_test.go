package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestCatalog_FindAndIndexOf(t *testing.T) {
	c := Catalog{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b"},
		{ID: 2, Title: "dup"},
	}

	tests := []struct {
		name      string
		id        int64
		wantIndex int
		wantTitle string
		wantOK    bool
	}{
		{name: "first", id: 1, wantIndex: 0, wantTitle: "a", wantOK: true},
		{name: "duplicate keeps first", id: 2, wantIndex: 1, wantTitle: "b", wantOK: true},
		{name: "missing", id: 9, wantIndex: -1, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IndexOf(tt.id); got != tt.wantIndex {
				t.Errorf("IndexOf(%d) = %d, want %d", tt.id, got, tt.wantIndex)
			}
			p, ok := c.Find(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Find(%d) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && p.Title != tt.wantTitle {
				t.Errorf("Find(%d) title = %q, want %q", tt.id, p.Title, tt.wantTitle)
			}
		})
	}

	idx := c.Index()
	if idx[2] != 1 {
		t.Errorf("Index()[2] = %d, want 1", idx[2])
	}
}

func TestInteractionLog_AppendOnly(t *testing.T) {
	l := NewInteractionLog(Interaction{ProductID: 1, Timestamp: 10, Kind: KindView})

	if err := l.Append(Interaction{ProductID: 2, Timestamp: 20, Kind: KindClick}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	err := l.Append(Interaction{ProductID: 3, Kind: "purchase"})
	if !errors.Is(err, ErrInvalidInteraction) {
		t.Fatalf("Append(invalid) error = %v, want ErrInvalidInteraction", err)
	}
	if !IsInvalidInput(err) {
		t.Errorf("IsInvalidInput(%v) = false, want true", err)
	}

	snap := l.Snapshot()
	if len(snap) != 2 || l.Len() != 2 {
		t.Fatalf("len = %d/%d, want 2", len(snap), l.Len())
	}
	snap[0].ProductID = 99
	if l.Snapshot()[0].ProductID != 1 {
		t.Error("Snapshot must be a copy")
	}
}

func TestInteractionLog_ConcurrentAppend(t *testing.T) {
	l := NewInteractionLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = l.Append(Interaction{ProductID: int64(i), Timestamp: int64(i), Kind: KindView})
		}(i)
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Errorf("Len() = %d, want 50", l.Len())
	}
}

func TestDomainError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("load model: %w", ErrStoreNotFound)

	if !IsStoreNotFound(wrapped) {
		t.Error("IsStoreNotFound should see through wrapping")
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsStoreNotSupported(wrapped) {
		t.Error("IsStoreNotSupported = true, want false")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain error is not a DomainError")
	}
	if GetDomainError(nil) != nil {
		t.Error("GetDomainError(nil) != nil")
	}
}

func TestClamp01(t *testing.T) {
	for in, want := range map[float64]float64{-0.5: 0, 0.3: 0.3, 1.7: 1} {
		if got := Clamp01(in); got != want {
			t.Errorf("Clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}
