package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// GuardConfig 熔断器参数。
type GuardConfig struct {
	Name             string        `koanf:"name"`
	MaxRequests      uint32        `koanf:"max_requests"`      // 半开状态允许的探测请求数
	Interval         time.Duration `koanf:"interval"`          // 关闭状态下清零计数的周期
	Timeout          time.Duration `koanf:"timeout"`           // 打开状态持续多久后进入半开
	FailureThreshold uint32        `koanf:"failure_threshold"` // 连续失败多少次后熔断
}

// DefaultGuardConfig 返回默认熔断参数。
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Name:             "toxicity-oracle",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Guard 用熔断器包装 Oracle，把各种失败统一成 ErrOracleUnavailable。
type Guard struct {
	oracle Oracle
	cb     *gobreaker.CircuitBreaker[bool]
	log    zerolog.Logger
}

// NewGuard 创建 Guard；oracle 可以为 nil（此时每次检查都返回 ErrOracleUnavailable）。
func NewGuard(oracle Oracle, cfg GuardConfig) *Guard {
	def := DefaultGuardConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	g := &Guard{oracle: oracle, log: logging.WithComponent("moderation")}
	g.cb = gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			g.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	return g
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State 返回熔断器状态。
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// Check 判断文本是否有毒。分类器缺失、报错、panic 或熔断时返回 ErrOracleUnavailable。
func (g *Guard) Check(ctx context.Context, text string) (bool, error) {
	if g == nil || g.oracle == nil {
		metrics.ModerationChecks.WithLabelValues("unavailable").Inc()
		return false, ErrOracleUnavailable
	}

	toxic, err := g.cb.Execute(func() (result bool, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("oracle panic: %v", r)
			}
		}()
		return g.oracle.Classify(ctx, text)
	})
	if err != nil {
		metrics.ModerationChecks.WithLabelValues("unavailable").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}
		g.log.Warn().Err(err).Msg("toxicity check failed")
		return false, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	if toxic {
		metrics.ModerationChecks.WithLabelValues("toxic").Inc()
	} else {
		metrics.ModerationChecks.WithLabelValues("clean").Inc()
	}
	return toxic, nil
}
