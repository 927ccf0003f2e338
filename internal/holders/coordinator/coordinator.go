// Package coordinator runs the metadata and holder retrievals for a token
// concurrently and keeps a single consistent fetch state where the most
// recent submission always wins.
package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"token-holders/internal/holders/ledger"
	"token-holders/internal/holders/model"
	"token-holders/internal/holders/monitor"
	"token-holders/internal/holders/view"
	"token-holders/pkg/logger"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	TracerName = "token-holders"

	// FallbackMessage is shown when a failure carries no user facing message.
	FallbackMessage = "An unexpected error occurred"
)

var (
	ErrEmptyIdentifier = errors.New("token identifier is empty")
	ErrSuperseded      = errors.New("lookup superseded by a newer submission")
	ErrNothingToRetry  = errors.New("no previous lookup to retry")
)

type Options struct {
	MaxHolders int
	Enrich     view.EnrichOptions
	// Now defaults to time.Now
	Now func() time.Time
}

type subscriber struct {
	id int
	fn func(model.FetchState)
}

type Coordinator struct {
	ledger ledger.Client
	tl     *zap.Logger

	mu          sync.Mutex
	opts        Options
	gen         uint64
	state       model.FetchState
	lastSettled string
	subs        []subscriber
	nextSubID   int
	pending     []model.FetchState

	// notifyMu 保证订阅者按状态变更顺序收到通知
	notifyMu sync.Mutex
}

func New(client ledger.Client, opts Options, tl *zap.Logger) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		ledger: client,
		opts:   opts,
		tl:     tl,
		state:  model.FetchState{Phase: model.PhaseIdle},
	}
}

// Ledger exposes the collaborator for syntax checks and endpoint info.
func (c *Coordinator) Ledger() ledger.Client {
	return c.ledger
}

// SetEnrichOptions replaces the enrichment options used by later lookups.
func (c *Coordinator) SetEnrichOptions(opts view.EnrichOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Enrich = opts
}

func (c *Coordinator) State() model.FetchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View projects the current successful result through sort and search.
// ok is false unless the state is Success.
func (c *Coordinator) View(cfg model.SortConfig, term string) (v view.View, ok bool) {
	st := c.State()
	if st.Phase != model.PhaseSuccess || st.Result == nil {
		return view.View{}, false
	}
	return view.Project(st.Result.Rows, cfg, term), true
}

// Subscribe registers fn for every applied state transition. fn runs
// synchronously on the submitting goroutine and must not call Submit or
// Retry.
func (c *Coordinator) Subscribe(fn func(model.FetchState)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Submit looks up identifier. It returns ErrSuperseded when a newer
// submission started before this one settled; the state then belongs to
// the newer submission.
func (c *Coordinator) Submit(ctx context.Context, identifier string) (*model.QueryResult, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return nil, ErrEmptyIdentifier
	}

	ctx, span := logger.StartSpan(ctx, TracerName, "holders.submit")
	defer span.End()
	span.SetAttributes(attribute.String("token", id))
	tl := logger.NewLoggerWithTrace(ctx, c.tl)

	g, opts := c.begin(id)
	span.SetAttributes(attribute.Int64("generation", int64(g)))
	start := time.Now()

	meta, holders, err := c.fetch(ctx, id, opts.MaxHolders)

	var (
		next   model.FetchState
		result *model.QueryResult
	)
	if err != nil {
		next = model.FetchState{Phase: model.PhaseFailed, Identifier: id, Message: failureMessage(err), Generation: g}
	} else {
		now := opts.Now()
		meta.HoldersCount = len(holders)
		result = &model.QueryResult{
			Identifier: id,
			Metadata:   meta,
			Holders:    holders,
			Rows:       view.Enrich(holders, meta, opts.Enrich, now),
			FetchedAt:  now,
		}
		next = model.FetchState{Phase: model.PhaseSuccess, Identifier: id, Result: result, Generation: g}
	}

	if !c.settle(g, next) {
		monitor.LookupsTotal.WithLabelValues(monitor.OutcomeSuperseded).Inc()
		monitor.LookupDuration.WithLabelValues(monitor.OutcomeSuperseded).Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.Bool("superseded", true))
		tl.Info("discard superseded lookup", zap.String("token", id), zap.Uint64("generation", g))
		return nil, ErrSuperseded
	}

	if err != nil {
		monitor.LookupsTotal.WithLabelValues(monitor.OutcomeFailed).Inc()
		monitor.LookupDuration.WithLabelValues(monitor.OutcomeFailed).Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, next.Message)
		tl.Warn("lookup failed", zap.String("token", id), zap.String("message", next.Message), zap.Error(err))
		return nil, err
	}

	monitor.LookupsTotal.WithLabelValues(monitor.OutcomeSuccess).Inc()
	monitor.LookupDuration.WithLabelValues(monitor.OutcomeSuccess).Observe(time.Since(start).Seconds())
	monitor.HoldersReturned.Observe(float64(len(holders)))
	tl.Info("lookup succeeded",
		zap.String("token", id),
		zap.String("symbol", result.Metadata.Symbol),
		zap.Int("holders", len(holders)),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

// Retry resubmits the identifier of the most recent settled lookup.
func (c *Coordinator) Retry(ctx context.Context) (*model.QueryResult, error) {
	c.mu.Lock()
	id := c.lastSettled
	c.mu.Unlock()
	if id == "" {
		return nil, ErrNothingToRetry
	}
	return c.Submit(ctx, id)
}

// fetch issues both retrievals and waits for both. The first failure
// cancels the sibling request.
func (c *Coordinator) fetch(ctx context.Context, id string, maxHolders int) (model.TokenMetadata, []model.RawHolder, error) {
	var (
		meta    model.TokenMetadata
		holders []model.RawHolder
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		ctx, span := logger.StartSpan(ctx, TracerName, "ledger.metadata")
		defer span.End()
		m, err := c.ledger.FetchTokenMetadata(ctx, id)
		if err != nil {
			span.RecordError(err)
			return err
		}
		meta = m
		return nil
	})
	p.Go(func(ctx context.Context) error {
		ctx, span := logger.StartSpan(ctx, TracerName, "ledger.holders")
		defer span.End()
		h, err := c.ledger.FetchHolders(ctx, id, maxHolders)
		if err != nil {
			span.RecordError(err)
			return err
		}
		span.SetAttributes(attribute.Int("holders", len(h)))
		holders = h
		return nil
	})
	if err := p.Wait(); err != nil {
		return model.TokenMetadata{}, nil, err
	}
	return meta, holders, nil
}

func (c *Coordinator) begin(id string) (uint64, Options) {
	c.mu.Lock()
	c.gen++
	g, opts := c.gen, c.opts
	c.state = model.FetchState{Phase: model.PhaseLoading, Identifier: id, Generation: g}
	c.publishAndUnlock(c.state)
	return g, opts
}

// settle applies next only while g is still the newest generation.
func (c *Coordinator) settle(g uint64, next model.FetchState) bool {
	c.mu.Lock()
	if g != c.gen {
		c.mu.Unlock()
		return false
	}
	c.state = next
	c.lastSettled = next.Identifier
	c.publishAndUnlock(c.state)
	return true
}

// publishAndUnlock must be called with mu held. Transitions are queued in
// the order applied and drained by whichever caller holds notifyMu, so
// subscribers see them in order and may read State.
func (c *Coordinator) publishAndUnlock(s model.FetchState) {
	c.pending = append(c.pending, s)
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		next := c.pending[0]
		c.pending = c.pending[1:]
		subs := make([]subscriber, len(c.subs))
		copy(subs, c.subs)
		c.mu.Unlock()

		for _, sub := range subs {
			sub.fn(next)
		}
	}
}

func failureMessage(err error) string {
	var qe *ledger.QueryError
	if errors.As(err, &qe) && qe.Message != "" {
		return qe.Message
	}
	return FallbackMessage
}
