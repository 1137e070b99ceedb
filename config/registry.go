// Package config 负责进程配置加载（koanf）与 Pipeline Node 注册表。
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/pipeline"
)

// 使用配置驱动时，需在入口处 import _ "github.com/rushteam/shoprec/config/builders"
// 以触发内置 Node（rank.hybrid、filter、rerank.topn、rerank.diversity）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	registry   = make(map[string]NodeBuilder)
	registryMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑；同名重复注册时后者覆盖前者。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = builder
}

// SupportedTypes 返回已注册的 Node 类型（排序）。
func SupportedTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含当前注册表全部构建器的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range registry {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验 Pipeline 中每个 node 都声明了类型且类型已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("pipeline node %d: missing type", i)
		}
		if _, ok := registry[nc.Type]; !ok {
			types := make([]string, 0, len(registry))
			for t := range registry {
				types = append(types, t)
			}
			sort.Strings(types)
			return fmt.Errorf("pipeline node %d: unsupported type %q (supported: %v)", i, nc.Type, types)
		}
	}
	return nil
}
