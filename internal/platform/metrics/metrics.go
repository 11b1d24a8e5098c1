package metrics

import (
	"net/http"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dbcc"

var Registry = prometheus.NewRegistry()

var (
	RSVPAttempts = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rsvp_attempts_total",
		Help:      "Registration and cancellation attempts by outcome.",
	}, []string{"action", "outcome"})

	TokensIssued = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Single-use tokens issued by kind.",
	}, []string{"kind"})

	TokenRedemptions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_redemptions_total",
		Help:      "Token redemption attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	Notifications = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries by outcome.",
	}, []string{"outcome"})

	RateLimited = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter, by route.",
	}, []string{"route"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Outcome labels an operation result for counters.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return common.ErrorCode(err)
}
