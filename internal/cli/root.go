// Package cli implements the shoprec CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/config/builders"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/learner"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/store"
)

var (
	configPath  string
	catalogPath string
	eventsPath  string

	appCfg *config.AppConfig

	// closers 在命令结束或 exitErr 退出前按逆序执行
	closers []func() error
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "shoprec",
	Short: "Hybrid product recommendations with an online next-product learner",
	Long: "Re-ranks a product catalog for a single shopper from their interaction log, " +
		"trains a next-product classifier on browsing sessions and moderates product comments.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			exitErr("load config", err)
		}
		if catalogPath != "" {
			cfg.Catalog.File = catalogPath
		}
		logging.Init(cfg.Logging)
		appCfg = cfg
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeAll()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SHOPREC_CONFIG or ./shoprec.yaml)")
	RootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Read the catalog from a JSON file instead of the product API")
	RootCmd.PersistentFlags().StringVarP(&eventsPath, "events", "e", "", "Interaction log as a JSON array (default: empty log)")
}

func openStore(ctx context.Context) core.Store {
	s, err := store.Open(ctx, appCfg.Store)
	if err != nil {
		exitErr("open store", err)
	}
	onExit(s.Close)
	return s
}

func onExit(fn func() error) {
	closers = append(closers, fn)
}

func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close: %v\n", err)
		}
	}
	closers = nil
}

func loadCatalog(ctx context.Context) core.Catalog {
	catalog, err := appCfg.Catalog.Source().Products(ctx)
	if err != nil {
		exitErr("load catalog", err)
	}
	return catalog
}

// loadEvents 读取行为日志文件；非法的行为类型会被拒绝。
func loadEvents() []core.Interaction {
	if eventsPath == "" {
		return nil
	}
	data, err := os.ReadFile(eventsPath)
	if err != nil {
		exitErr("read events", err)
	}
	var raw []core.Interaction
	if err := json.Unmarshal(data, &raw); err != nil {
		exitErr("parse events", err)
	}
	log := core.NewInteractionLog()
	for _, it := range raw {
		if err := log.Append(it); err != nil {
			exitErr("parse events", err)
		}
	}
	return log.Snapshot()
}

func newLearner(s core.Store) *learner.Learner {
	opts := append(appCfg.Learner.Options(), learner.WithLogger(logging.Logger()))
	return learner.New(s, opts...)
}

func newEngine(s core.Store, trainer engine.Trainer) *engine.Engine {
	opts := []engine.Option{
		engine.WithRandom(rank.NewRandom(appCfg.Engine.Seed)),
		engine.WithLogger(logging.Logger()),
	}
	if path := appCfg.Engine.Pipeline; path != "" {
		builders.UseStore(s)
		pcfg, err := pipeline.LoadFromYAML(path)
		if err != nil {
			exitErr("load pipeline", err)
		}
		if err := config.ValidatePipelineConfig(pcfg); err != nil {
			exitErr("load pipeline", err)
		}
		p, err := pcfg.BuildPipeline(config.DefaultFactory())
		if err != nil {
			exitErr("build pipeline", err)
		}
		opts = append(opts, engine.WithPipeline(p))
	}
	return engine.New(trainer, opts...)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	closeAll()
	os.Exit(1)
}
