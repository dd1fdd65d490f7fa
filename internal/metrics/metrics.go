package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChainCallsTotal counts RPC calls per method and outcome
	ChainCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlogs_chain_calls_total",
			Help: "Total chain RPC calls",
		},
		[]string{"method", "status"},
	)

	// ExplorerRequestsTotal counts explorer API requests per action and outcome
	ExplorerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlogs_explorer_requests_total",
			Help: "Total block explorer API requests",
		},
		[]string{"action", "status"},
	)

	// ClassificationsTotal counts address classifications by result
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlogs_classifications_total",
			Help: "Total address classifications",
		},
		[]string{"kind"},
	)

	// AbiResolutionsTotal counts ABI resolutions by the strategy that answered
	AbiResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlogs_abi_resolutions_total",
			Help: "Total ABI resolutions by source",
		},
		[]string{"source"},
	)

	// CompileDuration tracks recovery compilations
	CompileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txlogs_compile_duration_seconds",
			Help:    "Duration of source recompilations",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"status"},
	)

	// TokenProbesTotal counts ERC-20 metadata probes
	TokenProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlogs_token_probes_total",
			Help: "Total token metadata probes",
		},
		[]string{"status"},
	)

	// LogsTotal counts processed logs by outcome
	LogsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlogs_logs_total",
			Help: "Total logs processed",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(ChainCallsTotal)
	prometheus.MustRegister(ExplorerRequestsTotal)
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(AbiResolutionsTotal)
	prometheus.MustRegister(CompileDuration)
	prometheus.MustRegister(TokenProbesTotal)
	prometheus.MustRegister(LogsTotal)
}

// Serve exposes /metrics on addr until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
