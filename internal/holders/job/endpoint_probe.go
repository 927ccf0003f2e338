package job

import (
	"context"

	"go.uber.org/zap"
)

// Prober is satisfied by ledger.EndpointSelector.
type Prober interface {
	Probe(ctx context.Context) error
}

// EndpointProbe 定时探测 RPC 节点延迟并切换到最快的可用节点
type EndpointProbe struct {
	prober Prober
	tl     *zap.Logger
}

func NewEndpointProbe(prober Prober, tl *zap.Logger) *EndpointProbe {
	return &EndpointProbe{prober: prober, tl: tl}
}

func (p *EndpointProbe) Run(ctx context.Context) error {
	if err := p.prober.Probe(ctx); err != nil {
		// 全部节点不可用时继续使用当前节点
		p.tl.Warn("endpoint probe found no healthy endpoint", zap.Error(err))
		return err
	}
	return nil
}
