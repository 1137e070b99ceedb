package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/learner"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/moderation"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/store"
)

// EnvPrefix 环境变量前缀；层级用双下划线分隔，例如 SHOPREC_STORE__DRIVER=badger。
const EnvPrefix = "SHOPREC_"

// ConfigPathEnvVar 指定配置文件路径的环境变量。
const ConfigPathEnvVar = "SHOPREC_CONFIG"

// DefaultConfigPaths 未显式指定时按顺序查找的配置文件。
var DefaultConfigPaths = []string{
	"shoprec.yaml",
	"shoprec.yml",
	"/etc/shoprec/config.yaml",
}

// AppConfig 是进程级配置。
type AppConfig struct {
	Logging    logging.Config   `koanf:"logging"`
	Store      store.Config     `koanf:"store"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Learner    LearnerConfig    `koanf:"learner"`
	Moderation ModerationConfig `koanf:"moderation"`
	Engine     EngineConfig     `koanf:"engine"`
}

// CatalogConfig 目录来源：File 非空时从本地 JSON 读取，否则请求商品 API。
type CatalogConfig struct {
	File string             `koanf:"file"`
	HTTP catalog.HTTPConfig `koanf:"http"`
}

// LearnerConfig 在线学习器参数。
type LearnerConfig struct {
	Slot                string  `koanf:"slot"`
	Seed                int64   `koanf:"seed"`
	MinInteractions     int     `koanf:"min_interactions"`
	Epochs              int     `koanf:"epochs"`
	MaxBatchSize        int     `koanf:"max_batch_size"`
	Hidden              []int   `koanf:"hidden"`
	Dropout             float64 `koanf:"dropout"`
	LearningRate        float64 `koanf:"learning_rate"`
	DiscardIncompatible bool    `koanf:"discard_incompatible"`
}

// ModerationConfig 评论审核：Endpoint 为空时不启用远程分类服务。
type ModerationConfig struct {
	Endpoint string                 `koanf:"endpoint"`
	Timeout  time.Duration          `koanf:"timeout"`
	Breaker  moderation.GuardConfig `koanf:"breaker"`
}

// EngineConfig 推荐引擎参数。
type EngineConfig struct {
	// Pipeline 可选的 Pipeline 配置文件（YAML）
	Pipeline string `koanf:"pipeline"`
	// Seed 打分探索项的随机种子，0 表示按时间
	Seed int64 `koanf:"seed"`
}

// DefaultAppConfig 返回默认配置。
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Logging: logging.DefaultConfig(),
		Store:   store.Config{Driver: store.DriverMemory},
		Catalog: CatalogConfig{HTTP: catalog.DefaultHTTPConfig()},
		Learner: LearnerConfig{
			Slot:                learner.DefaultSlot,
			MinInteractions:     learner.DefaultMinInteractions,
			Epochs:              learner.DefaultEpochs,
			MaxBatchSize:        learner.DefaultMaxBatchSize,
			Hidden:              []int{64, 32},
			Dropout:             0.2,
			LearningRate:        model.DefaultAdam().LearningRate,
			DiscardIncompatible: true,
		},
		Moderation: ModerationConfig{
			Timeout: 5 * time.Second,
			Breaker: moderation.DefaultGuardConfig(),
		},
	}
}

// Load 按 默认值 → 配置文件 → 环境变量 的顺序加载配置，后者覆盖前者。
// path 为空时依次尝试 SHOPREC_CONFIG 与 DefaultConfigPaths；都不存在则跳过文件层。
// 当前目录下的 .env 会先被加载进环境变量（不存在时忽略）。
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	defaults := DefaultAppConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := DefaultAppConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Logging.Output = defaults.Logging.Output

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envTransform: SHOPREC_CATALOG__HTTP__BASE_URL -> catalog.http.base_url
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate 校验配置取值。
func (a *AppConfig) Validate() error {
	var errs []error
	switch a.Store.Driver {
	case "", store.DriverMemory, store.DriverRedis, store.DriverBadger, store.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", a.Store.Driver))
	}
	if a.Store.Driver == store.DriverSQLite && a.Store.Path == "" {
		errs = append(errs, errors.New("store.path: required for sqlite"))
	}
	if a.Store.Driver == store.DriverRedis && a.Store.Addr == "" {
		errs = append(errs, errors.New("store.addr: required for redis"))
	}
	if a.Learner.Dropout < 0 || a.Learner.Dropout >= 1 {
		errs = append(errs, fmt.Errorf("learner.dropout: must be in [0,1), got %v", a.Learner.Dropout))
	}
	if a.Learner.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learner.learning_rate: must be > 0, got %v", a.Learner.LearningRate))
	}
	for _, h := range a.Learner.Hidden {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("learner.hidden: layer sizes must be > 0, got %v", a.Learner.Hidden))
			break
		}
	}
	if a.Catalog.HTTP.Retries < 0 {
		errs = append(errs, fmt.Errorf("catalog.http.retries: must be >= 0, got %d", a.Catalog.HTTP.Retries))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Options 把学习器配置转换为 learner.Option。
func (c LearnerConfig) Options() []learner.Option {
	adam := model.DefaultAdam()
	if c.LearningRate > 0 {
		adam.LearningRate = c.LearningRate
	}
	return []learner.Option{
		learner.WithSlot(c.Slot),
		learner.WithSeed(c.Seed),
		learner.WithTraining(c.MinInteractions, c.Epochs, c.MaxBatchSize),
		learner.WithNetwork(c.Hidden, c.Dropout, adam),
		learner.WithDiscardIncompatible(c.DiscardIncompatible),
	}
}

// Source 根据配置创建目录来源。
func (c CatalogConfig) Source() catalog.Source {
	if c.File != "" {
		return catalog.FileSource{Path: c.File}
	}
	return catalog.NewHTTPSource(c.HTTP)
}
