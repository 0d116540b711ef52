package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the bidding engine
type Metrics struct {
	BidsTotal           *prometheus.CounterVec
	BidsRejectedTotal   *prometheus.CounterVec
	ResolutionRounds    prometheus.Counter
	ResolutionConflicts prometheus.Counter
	ResolutionDuration  prometheus.Histogram
	SnipeExtensions     prometheus.Counter
	LotsEnded           *prometheus.CounterVec
	ActiveProxyGauge    prometheus.Gauge
}

// New registers the engine metrics on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BidsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "bids_total",
			Help:      "Accepted bid triggers by origin.",
		}, []string{"origin"}),
		BidsRejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "bids_rejected_total",
			Help:      "Rejected bid triggers by error code.",
		}, []string{"code"}),
		ResolutionRounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "resolution_rounds_total",
			Help:      "Completed proxy resolution rounds.",
		}),
		ResolutionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "resolution_conflicts_total",
			Help:      "Optimistic lock conflicts during resolution.",
		}),
		ResolutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "auction",
			Name:      "resolution_duration_seconds",
			Help:      "Wall time of one resolution round including persistence.",
			Buckets:   prometheus.DefBuckets,
		}),
		SnipeExtensions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "snipe_extensions_total",
			Help:      "Deadline extensions triggered by late bids.",
		}),
		LotsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "lots_ended_total",
			Help:      "Ended lots by reason.",
		}, []string{"reason"}),
		ActiveProxyGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "auction",
			Name:      "active_proxies",
			Help:      "Currently active proxy instructions.",
		}),
	}
}

// NewDefault registers on the default Prometheus registry
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
