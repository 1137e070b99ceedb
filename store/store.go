// Package store 提供 core.Store 的各种实现：memory / redis / badger / sqlite。
// 接口定义在 core 包，此包只包含实现。
//
//	s, err := store.Open(ctx, store.Config{Driver: "badger", Path: "./data/model"})
//	var st core.Store = s
package store

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/core"
)

// 支持的驱动名称。
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config 描述要打开的存储后端。
type Config struct {
	Driver string `koanf:"driver"`

	// Path 用于 badger（目录）和 sqlite（文件）
	Path string `koanf:"path"`

	// Redis 连接参数
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// Open 根据配置创建 Store；Driver 为空时使用 memory。
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.Prefix)
	case DriverBadger:
		return NewBadgerStore(cfg.Path)
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: sqlite requires a path")
		}
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
