package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"token-holders/internal/holders/config"
	"token-holders/internal/holders/model"
	"token-holders/internal/holders/monitor"
	"token-holders/pkg/solana_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var ErrNoHealthyEndpoint = errors.New("no healthy rpc endpoint")

// EndpointStatus 单个节点最近一次探测结果
type EndpointStatus struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	LatencyMs *int64 `json:"latency_ms,omitempty"` // nil 表示不可用或未探测
	Err       string `json:"error,omitempty"`
	Current   bool   `json:"current"`
}

type endpoint struct {
	name   string
	url    string
	client *rpc.Client
}

// EndpointSelector keeps the fastest healthy RPC endpoint as current.
type EndpointSelector struct {
	endpoints []endpoint
	tl        *zap.Logger

	mu      sync.RWMutex
	current int
	status  []EndpointStatus
}

func NewEndpointSelector(cfgs []config.EndpointConfig, tl *zap.Logger) (*EndpointSelector, error) {
	if len(cfgs) == 0 {
		return nil, ErrNoEndpoint
	}
	s := &EndpointSelector{tl: tl}
	for i, c := range cfgs {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = c.URL
		}
		s.endpoints = append(s.endpoints, endpoint{
			name:   name,
			url:    c.URL,
			client: solana_client.InitWithHeaders(c.URL, c.Headers),
		})
		s.status = append(s.status, EndpointStatus{Name: name, URL: c.URL, Current: i == 0})
	}
	return s, nil
}

// Client returns the current endpoint's RPC client.
func (s *EndpointSelector) Client() *rpc.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoints[s.current].client
}

func (s *EndpointSelector) Current() model.EndpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status[s.current]
	return model.EndpointInfo{Name: st.Name, LatencyMs: st.LatencyMs}
}

func (s *EndpointSelector) Statuses() []EndpointStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EndpointStatus, len(s.status))
	copy(out, s.status)
	return out
}

// Probe measures getSlot latency on every endpoint in parallel and switches
// to the fastest healthy one. With no healthy endpoint the current one is
// kept and ErrNoHealthyEndpoint is returned.
func (s *EndpointSelector) Probe(ctx context.Context) error {
	results := make([]EndpointStatus, len(s.endpoints))
	p := pool.New().WithMaxGoroutines(len(s.endpoints))
	for i, ep := range s.endpoints {
		p.Go(func() {
			results[i] = s.probeOne(ctx, ep)
		})
	}
	p.Wait()

	best := -1
	for i, r := range results {
		if r.LatencyMs == nil {
			monitor.EndpointLatency.WithLabelValues(r.Name).Set(-1)
			continue
		}
		monitor.EndpointLatency.WithLabelValues(r.Name).Set(float64(*r.LatencyMs))
		if best < 0 || *r.LatencyMs < *results[best].LatencyMs {
			best = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if best >= 0 && best != s.current {
		s.tl.Info("switch rpc endpoint",
			zap.String("from", s.endpoints[s.current].name),
			zap.String("to", s.endpoints[best].name),
			zap.Int64("latency_ms", *results[best].LatencyMs))
		s.current = best
	}
	for i := range results {
		results[i].Current = i == s.current
	}
	s.status = results
	if best < 0 {
		return ErrNoHealthyEndpoint
	}
	return nil
}

func (s *EndpointSelector) probeOne(ctx context.Context, ep endpoint) EndpointStatus {
	st := EndpointStatus{Name: ep.name, URL: ep.url}
	start := time.Now()
	_, err := ep.client.GetSlot(ctx, rpc.CommitmentConfirmed)
	monitor.ObserveLedger(OpProbe, err)
	if err != nil {
		s.tl.Warn("rpc endpoint probe failed", zap.String("endpoint", ep.name), zap.Error(err))
		st.Err = err.Error()
		return st
	}
	ms := time.Since(start).Milliseconds()
	st.LatencyMs = &ms
	return st
}
