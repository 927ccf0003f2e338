package holders

import (
	"context"
	"io"
	"sync"

	"token-holders/internal/holders/api"
	"token-holders/internal/holders/classifier"
	"token-holders/internal/holders/config"
	"token-holders/internal/holders/coordinator"
	"token-holders/internal/holders/job"
	"token-holders/internal/holders/ledger"
	"token-holders/internal/holders/monitor"
	"token-holders/internal/holders/view"

	"go.uber.org/zap"
)

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	ledger    ledger.Client
	selector  *ledger.EndpointSelector // 仅 rpc provider
	scheduler *job.Scheduler
	metrics   *monitor.MetricsServer

	mu      sync.RWMutex
	enrich  view.EnrichOptions
	session *coordinator.Coordinator
}

func New(cfg config.Config, logger *zap.Logger) (*Core, error) {
	client, err := ledger.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	// 初始化作业调度器
	scheduler := job.NewScheduler(logger)

	var selector *ledger.EndpointSelector
	if rpcLedger, ok := client.(*ledger.RPCLedger); ok {
		selector = rpcLedger.Endpoints()
		// 定时探测节点延迟，启动时立即执行一次；关闭定时探测时只在启动时探测
		probe := job.NewEndpointProbe(selector, logger)
		if interval := cfg.Ledger.ProbeIntervalDuration(); interval > 0 {
			scheduler.RegisterJob("endpoint_probe", interval, probe.Run)
		} else {
			scheduler.RegisterOnceJob("endpoint_probe", probe.Run)
		}
	}

	c := &Core{
		cfg:       cfg,
		tl:        logger,
		ledger:    client,
		selector:  selector,
		scheduler: scheduler,
		metrics:   monitor.NewMetricsServer(cfg.Monitor, logger),
		enrich:    EnrichOptions(cfg),
	}
	c.session = coordinator.New(client, c.CoordinatorOptions(), logger)
	return c, nil
}

// EnrichOptions builds the pool classifier and ranking mode from cfg.
func EnrichOptions(cfg config.Config) view.EnrichOptions {
	preds := []classifier.Predicate{
		classifier.NewKnownPools(cfg.Pools.Known, cfg.Families).Predicate(),
	}
	if cfg.Pools.OffCurve {
		preds = append(preds, classifier.OffCurve)
	}
	return view.EnrichOptions{
		IsPool:        classifier.Any(preds...),
		RankByBalance: cfg.View.RankByBalance,
	}
}

func (c *Core) CoordinatorOptions() coordinator.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return coordinator.Options{
		MaxHolders: c.cfg.Ledger.MaxHolders,
		Enrich:     c.enrich,
	}
}

// TableRows is the configured number of rows a table prints.
func (c *Core) TableRows() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.View.TableRows
}

// Session is the long lived coordinator used by interactive lookups.
func (c *Core) Session() *coordinator.Coordinator {
	return c.session
}

func (c *Core) Ledger() ledger.Client {
	return c.ledger
}

// Selector is nil unless the rpc provider is configured.
func (c *Core) Selector() *ledger.EndpointSelector {
	return c.selector
}

// NewAPI builds the HTTP server sharing this core's ledger.
func (c *Core) NewAPI() *api.Server {
	return api.New(c.cfg.API, c.ledger, c.CoordinatorOptions, c.tl)
}

// ApplyConfig picks up hot reloaded pool and view settings.
func (c *Core) ApplyConfig(cfg config.Config) {
	opts := EnrichOptions(cfg)
	c.mu.Lock()
	c.cfg.Pools = cfg.Pools
	c.cfg.Families = cfg.Families
	c.cfg.View = cfg.View
	c.enrich = opts
	c.mu.Unlock()

	c.session.SetEnrichOptions(opts)
	c.tl.Info("holder view settings reloaded", zap.Bool("rank_by_balance", cfg.View.RankByBalance), zap.Bool("off_curve", cfg.Pools.OffCurve))
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting holders core...")
	// 启动监控服务
	c.metrics.Run()
	// 启动调度器
	c.scheduler.Start(ctx)
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping holders core...")

	c.scheduler.Stop(ctx)

	// 停止 Prometheus 监控服务
	if err := c.metrics.Stop(ctx); err != nil {
		c.tl.Warn("metrics server shutdown failed", zap.Error(err))
	}

	if closer, ok := c.ledger.(io.Closer); ok {
		_ = closer.Close()
	}

	c.tl.Info("Holders core stopped.")
}
