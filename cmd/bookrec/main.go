// Command bookrec 挖掘借阅记录中的题材关联规则，并据此推荐题材与图书。
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/config"
	_ "github.com/rushteam/bookrec/config/builders"
	"github.com/rushteam/bookrec/metrics"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app 是各子命令共享的运行时状态，在 PersistentPreRunE 中初始化。
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string

	cfg         *config.EngineConfig
	logger      zerolog.Logger
	collector   *metrics.Collector
	recommender *apriori.Recommender
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "bookrec",
		Short:         "Genre association-rule recommendations for library borrowing history",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "engine config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newDemoCmd(a),
		newMineCmd(a),
		newRecommendCmd(a),
		newEvaluateCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadEngineConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}
	a.cfg = cfg
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        a.errOut,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Logger()

	if a.collector, err = metrics.NewCollector(prometheus.NewRegistry()); err != nil {
		return err
	}
	a.recommender = apriori.NewRecommender(cfg.Mining.Apriori(),
		apriori.WithLogger(a.logger),
		apriori.WithMetrics(a.collector),
	)
	return nil
}
