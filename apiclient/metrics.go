package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "market"
	metricsSubsystem = "client"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeMissing = "missing_refresh_token"
)

type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	queued    prometheus.Counter
	logouts   prometheus.Counter
}

// newMetrics creates the client collectors. A nil registerer leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "Requests dispatched, by method and status code (0 for transport errors).",
		}, []string{"method", "code"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts, by outcome.",
		}, []string{"outcome"}),
		queued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "queued_requests_total",
			Help:      "Requests parked while a token refresh was in progress.",
		}),
		logouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "forced_logouts_total",
			Help:      "Sessions ended by an unrecoverable refresh failure.",
		}),
	}
}

func (m *metrics) observeRequest(method string, status int) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *metrics) observeRefresh(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}
