package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// HTTPConfig 是商品 API 客户端配置。
type HTTPConfig struct {
	BaseURL        string        `koanf:"base_url"`
	Limit          int           `koanf:"limit"`           // 列表接口的 limit 参数
	Retries        int           `koanf:"retries"`         // 首次失败后的重试次数
	StaleTime      time.Duration `koanf:"stale_time"`      // 缓存在这段时间内视为新鲜，不重新请求
	GCTime         time.Duration `koanf:"gc_time"`         // 请求失败时，这段时间内的旧缓存仍可兜底
	Timeout        time.Duration `koanf:"timeout"`         // 单次 HTTP 请求超时
	MaxConcurrency int           `koanf:"max_concurrency"` // ProductsByID 的并发上限
}

// DefaultHTTPConfig 返回默认配置。
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		BaseURL:        "https://fakestoreapi.com",
		Limit:          12,
		Retries:        3,
		StaleTime:      5 * time.Minute,
		GCTime:         10 * time.Minute,
		Timeout:        10 * time.Second,
		MaxConcurrency: 4,
	}
}

// RetryDelay 返回第 attempt 次重试（从 0 开始）前的等待时间：min(1s × 2^attempt, 30s)。
func RetryDelay(attempt int) time.Duration {
	const maxDelay = 30 * time.Second
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxDelay
	}
	return min(time.Second<<attempt, maxDelay)
}

type cached[T any] struct {
	value     T
	fetchedAt time.Time
}

// HTTPSource 从商品 API 获取目录，带重试与缓存。
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
	log    zerolog.Logger

	// 可在测试中替换
	now   func() time.Time
	delay func(attempt int) time.Duration

	mu       sync.Mutex
	list     *cached[core.Catalog]
	products map[int64]cached[core.Product]
}

// NewHTTPSource 创建 HTTPSource；cfg 中的零值使用默认配置。
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	def := DefaultHTTPConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPSource{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      logging.WithComponent("catalog"),
		now:      time.Now,
		delay:    RetryDelay,
		products: make(map[int64]cached[core.Product]),
	}
}

// Products 获取商品列表（GET /products?limit=N）。
// 空 body 或校验失败返回 ErrInvalidCatalog，且不写入缓存；仍在 GCTime 内的旧快照可兜底。
func (s *HTTPSource) Products(ctx context.Context) (core.Catalog, error) {
	s.mu.Lock()
	list := s.list
	s.mu.Unlock()

	now := s.now()
	if list != nil && now.Sub(list.fetchedAt) < s.cfg.StaleTime {
		metrics.CatalogFetches.WithLabelValues("http", "cached").Inc()
		return list.value, nil
	}

	var catalog core.Catalog
	err := s.fetch(ctx, "/products?limit="+strconv.Itoa(s.cfg.Limit), &catalog)
	if errors.Is(err, errEmptyBody) {
		err = fmt.Errorf("%w: empty product list body", ErrInvalidCatalog)
	}
	if err == nil {
		err = Validate(catalog)
	}
	if err != nil {
		if list != nil && s.cfg.GCTime > 0 && now.Sub(list.fetchedAt) < s.cfg.GCTime {
			s.log.Warn().Err(err).Msg("catalog refresh failed, serving stale snapshot")
			metrics.CatalogFetches.WithLabelValues("http", "cached").Inc()
			return list.value, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.list = &cached[core.Catalog]{value: catalog, fetchedAt: s.now()}
	s.mu.Unlock()
	return catalog, nil
}

// Product 获取单个商品（GET /products/{id}）；不存在时返回 ErrProductNotFound。
func (s *HTTPSource) Product(ctx context.Context, id int64) (core.Product, error) {
	s.mu.Lock()
	c, ok := s.products[id]
	s.mu.Unlock()
	if ok && s.now().Sub(c.fetchedAt) < s.cfg.StaleTime {
		return c.value, nil
	}

	// 商品 API 对不存在的 id 可能返回 200 和空 body
	var p core.Product
	err := s.fetch(ctx, "/products/"+strconv.FormatInt(id, 10), &p)
	if errors.Is(err, errEmptyBody) {
		return core.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	if err != nil {
		return core.Product{}, err
	}
	if p.ID == 0 {
		return core.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}

	s.mu.Lock()
	s.products[id] = cached[core.Product]{value: p, fetchedAt: s.now()}
	s.mu.Unlock()
	return p, nil
}

// ProductsByID 并发获取多个商品，结果与 ids 顺序一致；任一失败即返回错误。
func (s *HTTPSource) ProductsByID(ctx context.Context, ids []int64) (core.Catalog, error) {
	out := make(core.Catalog, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.MaxConcurrency)

	for i, id := range ids {
		eg.Go(func() error {
			p, err := s.Product(egCtx, id)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// fetch 执行 GET 并解码 JSON；网络错误与 5xx 会按 RetryDelay 重试，404 直接返回。
func (s *HTTPSource) fetch(ctx context.Context, path string, dst any) error {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		if attempt > 0 {
			metrics.CatalogFetches.WithLabelValues("http", "retry").Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.delay(attempt - 1)):
			}
		}

		err := s.get(ctx, path, dst)
		if err == nil {
			metrics.CatalogFetches.WithLabelValues("http", "ok").Inc()
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			metrics.CatalogFetches.WithLabelValues("http", "error").Inc()
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		s.log.Debug().Err(err).Str("path", path).Int("attempt", attempt).Msg("catalog request failed")
	}
	metrics.CatalogFetches.WithLabelValues("http", "error").Inc()
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// errEmptyBody 表示 200 响应但 body 为空，由调用方决定其含义。
var errEmptyBody = errors.New("empty response body")

// permanentError 表示不需要重试的错误。
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }

func (s *HTTPSource) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path, nil)
	if err != nil {
		return &permanentError{err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &permanentError{err: fmt.Errorf("%w: %s", ErrProductNotFound, path)}
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return &permanentError{err: fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return &permanentError{err: errEmptyBody}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &permanentError{err: fmt.Errorf("%w: decode %s: %v", ErrInvalidCatalog, path, err)}
	}
	return nil
}

var _ Source = (*HTTPSource)(nil)
