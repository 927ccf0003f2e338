package main

import (
	"context"

	"token-holders/internal/holders"
	"token-holders/internal/holders/config"
	"token-holders/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const serviceName = "holders"

type rootFlags struct {
	configFile string
	logLevel   string
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "holders",
		Short:         "Ranked token holder analytics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default ./config/config.holders.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level")

	cmd.AddCommand(serveCmd(flags))
	cmd.AddCommand(lookupCmd(flags))
	cmd.AddCommand(endpointsCmd(flags))
	return cmd
}

// bootstrap loads config, sets up logging and tracing and builds the core.
func bootstrap(ctx context.Context, flags *rootFlags, defaultLevel string) (context.Context, *holders.Core, *zap.Logger, func(), error) {
	cfg, err := config.Load(viper.GetViper(), flags.configFile)
	if err != nil {
		return ctx, nil, nil, nil, err
	}

	// 初始化 trace provider
	tp := logger.InitTrace("token-holders", serviceName)
	ctx, span := logger.StartSpan(ctx, "main", "main")

	opts := logger.DefaultOptions()
	opts.Dir = cfg.Log.Dir
	rootLogger := logger.NewLoggerWithOptions(serviceName, opts)
	level := cfg.Log.Level
	if defaultLevel != "" {
		level = defaultLevel
	}
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger.SetLogLevel(level)
	tl := logger.WithTrace(ctx, rootLogger)

	core, err := holders.New(cfg, tl)
	if err != nil {
		span.End()
		return ctx, nil, nil, nil, err
	}

	// 启动配置热加载监听
	config.WatchConfig(&cfg, tl, core.ApplyConfig)

	cleanup := func() {
		span.End()
		_ = tp.Shutdown(context.Background())
		_ = rootLogger.Sync()
	}
	return ctx, core, tl, cleanup, nil
}
