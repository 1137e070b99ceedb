package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

const productsJSON = `[
  {"id":1,"title":"Backpack","price":109.95,"category":"men's clothing","rating":{"rate":3.9,"count":120}},
  {"id":2,"title":"T-Shirt","price":22.3,"category":"men's clothing","rating":{"rate":4.1,"count":259}}
]`

func newTestSource(t *testing.T, h http.Handler) (*HTTPSource, *time.Time) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultHTTPConfig()
	cfg.BaseURL = srv.URL
	s := NewHTTPSource(cfg)
	s.delay = func(int) time.Duration { return time.Millisecond }

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := RetryDelay(tt.attempt); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestHTTPSource_Products(t *testing.T) {
	var hits atomic.Int32
	s, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/products" || r.URL.Query().Get("limit") != "12" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(productsJSON))
	}))

	catalog, err := s.Products(context.Background())
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(catalog) != 2 || catalog[0].ID != 1 || catalog[1].Rating.Count != 259 {
		t.Fatalf("Products() = %+v", catalog)
	}

	// 新鲜期内命中缓存
	if _, err := s.Products(context.Background()); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1 (cached)", hits.Load())
	}
}

func TestHTTPSource_RetryThenSucceed(t *testing.T) {
	var hits atomic.Int32
	s, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(productsJSON))
	}))

	catalog, err := s.Products(context.Background())
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(catalog) != 2 || hits.Load() != 3 {
		t.Errorf("len = %d hits = %d, want 2 and 3", len(catalog), hits.Load())
	}
}

func TestHTTPSource_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	s, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := s.Products(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if !core.IsUnavailable(err) {
		t.Error("IsUnavailable() = false")
	}
	if hits.Load() != 4 {
		t.Errorf("hits = %d, want 1 + 3 retries", hits.Load())
	}
}

func TestHTTPSource_InvalidList(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"duplicate ids", `[{"id":1,"title":"A","price":1,"category":"x","rating":{"rate":1,"count":1}},{"id":1,"title":"B","price":2,"category":"x","rating":{"rate":2,"count":1}}]`},
		{"rating out of range", `[{"id":1,"title":"A","price":1,"category":"x","rating":{"rate":9,"count":1}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			s, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				_, _ = w.Write([]byte(tt.body))
			}))

			for i := 0; i < 2; i++ {
				if _, err := s.Products(context.Background()); !errors.Is(err, ErrInvalidCatalog) {
					t.Fatalf("Products() error = %v, want ErrInvalidCatalog", err)
				}
			}
			// 无效快照不进缓存，也不重试
			if hits.Load() != 2 {
				t.Errorf("hits = %d, want 2", hits.Load())
			}
		})
	}
}

func TestHTTPSource_StaleFallback(t *testing.T) {
	var fail atomic.Bool
	s, now := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(productsJSON))
	}))

	if _, err := s.Products(context.Background()); err != nil {
		t.Fatal(err)
	}
	fail.Store(true)

	// 过了新鲜期但仍在 GC 期内：用旧快照兜底
	*now = now.Add(7 * time.Minute)
	catalog, err := s.Products(context.Background())
	if err != nil || len(catalog) != 2 {
		t.Fatalf("stale fallback = %v, %v", catalog, err)
	}

	// 超过 GC 期：返回错误
	*now = now.Add(5 * time.Minute)
	if _, err := s.Products(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestHTTPSource_Product(t *testing.T) {
	var hits atomic.Int32
	s, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/products/1":
			_, _ = w.Write([]byte(`{"id":1,"title":"Backpack","price":109.95,"category":"men's clothing","rating":{"rate":3.9,"count":120}}`))
		case "/products/2":
			_, _ = w.Write([]byte(`{"id":2,"title":"T-Shirt","price":22.3,"category":"men's clothing","rating":{"rate":4.1,"count":259}}`))
		case "/products/42":
			// 商品 API 对不存在的 id 返回空 body
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	p, err := s.Product(ctx, 1)
	if err != nil || p.Title != "Backpack" {
		t.Fatalf("Product(1) = %+v, %v", p, err)
	}

	t.Run("empty body is not found", func(t *testing.T) {
		if _, err := s.Product(ctx, 42); !errors.Is(err, ErrProductNotFound) {
			t.Errorf("err = %v, want ErrProductNotFound", err)
		}
	})

	t.Run("404 is not retried", func(t *testing.T) {
		before := hits.Load()
		if _, err := s.Product(ctx, 7); !errors.Is(err, ErrProductNotFound) {
			t.Errorf("err = %v, want ErrProductNotFound", err)
		}
		if got := hits.Load() - before; got != 1 {
			t.Errorf("requests = %d, want 1", got)
		}
	})

	t.Run("by id keeps order", func(t *testing.T) {
		got, err := s.ProductsByID(ctx, []int64{2, 1})
		if err != nil {
			t.Fatal(err)
		}
		if got[0].ID != 2 || got[1].ID != 1 {
			t.Errorf("ProductsByID = %v", got.IDs())
		}
	})

	t.Run("by id fails on missing", func(t *testing.T) {
		if _, err := s.ProductsByID(ctx, []int64{1, 7}); !errors.Is(err, ErrProductNotFound) {
			t.Errorf("err = %v, want ErrProductNotFound", err)
		}
	})
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	s, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	s.delay = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Products(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantLen int
		wantErr error
	}{
		{name: "valid", path: write("ok.json", productsJSON), wantLen: 2},
		{name: "bad json", path: write("bad.json", "{"), wantErr: ErrInvalidCatalog},
		{name: "duplicate id", path: write("dup.json", `[{"id":1},{"id":1}]`), wantErr: ErrInvalidCatalog},
		{name: "rating out of range", path: write("rate.json", `[{"id":1,"rating":{"rate":7}}]`), wantErr: ErrInvalidCatalog},
		{name: "missing id", path: write("noid.json", `[{"title":"x"}]`), wantErr: ErrInvalidCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileSource{Path: tt.path}.Products(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || len(got) != tt.wantLen {
				t.Fatalf("Products() = %d items, %v", len(got), err)
			}
		})
	}

	if _, err := (FileSource{Path: filepath.Join(dir, "missing.json")}).Products(context.Background()); err == nil {
		t.Error("missing file: want error")
	}
}
