package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MintsTotal        prometheus.Counter
	MintFailuresTotal *prometheus.CounterVec
	BatchMintSize     prometheus.Histogram
	TransfersTotal    prometheus.Counter
	RoleChangesTotal  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_mints_total",
			Help: "Total number of tokens minted",
		}),
		MintFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mintgate_mint_failures_total",
			Help: "Total number of rejected mint operations by reason",
		}, []string{"reason"}),
		BatchMintSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mintgate_batch_mint_size",
			Help:    "Distribution of batch mint sizes",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_transfers_total",
			Help: "Total number of token transfers",
		}),
		RoleChangesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mintgate_role_changes_total",
			Help: "Total number of role grants and revocations",
		}, []string{"action"}),
	}
}

func (m *Metrics) AddMints(n int) {
	m.MintsTotal.Add(float64(n))
}

func (m *Metrics) IncrementMintFailures(reason string) {
	m.MintFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveBatchSize(n int) {
	m.BatchMintSize.Observe(float64(n))
}

func (m *Metrics) IncrementTransfers() {
	m.TransfersTotal.Inc()
}

func (m *Metrics) IncrementRoleChanges(action string) {
	m.RoleChangesTotal.WithLabelValues(action).Inc()
}
