package monitor

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
)

var (
	// LookupsTotal 查询结果计数
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holders_lookups_total",
			Help: "Total number of holder lookups by outcome.",
		},
		[]string{"outcome"},
	)
	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "holders_lookup_duration_seconds",
			Help:    "Time taken by a lookup from submission until both retrievals settled.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"outcome"},
	)
	HoldersReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "holders_returned_count",
			Help:    "Number of holders returned by successful lookups.",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	// LedgerRequests 链上/第三方接口请求
	LedgerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holders_ledger_requests_total",
			Help: "Total number of ledger requests by operation and status.",
		},
		[]string{"op", "status"},
	)
	FirstTxCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holders_first_tx_cache_total",
			Help: "First transaction timestamp cache lookups by result.",
		},
		[]string{"result"},
	)

	// EndpointLatency RPC 节点探测延迟，不可用时为 -1
	EndpointLatency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "holders_endpoint_latency_ms",
			Help: "Last probed latency of each RPC endpoint in milliseconds, -1 when unhealthy.",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(
		// 查询指标
		LookupsTotal,
		LookupDuration,
		HoldersReturned,

		// ledger 指标
		LedgerRequests,
		FirstTxCacheHits,
		EndpointLatency,
	)
}

// ObserveLedger records one ledger request.
func ObserveLedger(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LedgerRequests.WithLabelValues(op, status).Inc()
}
