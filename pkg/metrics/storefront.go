package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart and checkout activity.
type StorefrontMetrics struct {
	cartMutations    *prometheus.CounterVec
	checkoutOutcomes *prometheus.CounterVec
	paymentLatency   *prometheus.HistogramVec
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"operation"})
	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout payment submissions by result.",
	}, []string{"result"})
	paymentLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_authorize_duration_seconds",
		Help:    "Duration of simulated payment authorizations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "janitor_job_runs_total",
		Help: "Janitor job runs by job and result.",
	}, []string{"job", "result"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "janitor_job_duration_seconds",
		Help:    "Duration of janitor job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(cartMutations, checkoutOutcomes, paymentLatency, jobRuns, jobDuration)
	return &StorefrontMetrics{
		cartMutations:    cartMutations,
		checkoutOutcomes: checkoutOutcomes,
		paymentLatency:   paymentLatency,
		jobRuns:          jobRuns,
		jobDuration:      jobDuration,
	}
}

// IncCartMutation counts one cart operation.
func (m *StorefrontMetrics) IncCartMutation(operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncCheckoutOutcome counts one payment submission result.
func (m *StorefrontMetrics) IncCheckoutOutcome(result string) {
	if m == nil || m.checkoutOutcomes == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObservePayment records how long an authorization took.
func (m *StorefrontMetrics) ObservePayment(outcome string, duration time.Duration) {
	if m == nil || m.paymentLatency == nil {
		return
	}
	m.paymentLatency.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// ObserveJob records one janitor job run.
func (m *StorefrontMetrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobRuns == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	job = normalizeLabel(job)
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
