package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Generation pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	generationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "End-to-end generation pipeline duration.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300, 420},
		},
		[]string{"outcome"},
	)

	creditsSpentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_spent_total",
			Help: "Total credits debited for completed videos.",
		},
	)

	poolResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credential_pool_resets_total",
			Help: "Full credential pool quota resets.",
		},
	)

	providerPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_polls_total",
			Help: "Provider status queries by result (pending/completed/failed/error).",
		},
		[]string{"result"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Credit purchases by status (initiated/succeeded/failed).",
		},
		[]string{"status"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generate_rate_limited_total",
			Help: "Generation requests rejected by the per-user rate limiter.",
		},
	)
)

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			generationsTotal,
			generationSeconds,
			creditsSpentTotal,
			poolResetsTotal,
			providerPollsTotal,
			paymentsTotal,
			rateLimitedTotal,
		)
	})
}

func IncGenerations(outcome string) { generationsTotal.WithLabelValues(outcome).Inc() }

func ObserveGenerationSeconds(outcome string, s float64) {
	generationSeconds.WithLabelValues(outcome).Observe(s)
}

func AddCreditsSpent(n int) { creditsSpentTotal.Add(float64(n)) }

func IncPoolResets() { poolResetsTotal.Inc() }

func IncProviderPolls(result string) { providerPollsTotal.WithLabelValues(result).Inc() }

func IncPayments(status string) { paymentsTotal.WithLabelValues(status).Inc() }

func IncRateLimited() { rateLimitedTotal.Inc() }
