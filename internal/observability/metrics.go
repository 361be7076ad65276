package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waphone_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	ProviderSend = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waphone_provider_send_total", Help: "Provider adapter outcomes"},
		[]string{"provider", "result"},
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waphone_provider_send_latency_seconds",
			Help:    "Provider adapter call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)
	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waphone_fallback_total", Help: "Fallback hops taken"},
		[]string{"from", "to"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waphone_notifications_total", Help: "Dispatch results by message kind"},
		[]string{"kind", "result"},
	)
	Enqueues = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waphone_enqueue_total", Help: "SQS enqueue results"},
		[]string{"result"},
	)
	OrderEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waphone_order_events_total", Help: "Order status events handled"},
		[]string{"result"},
	)
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, ProviderSend, ProviderLatency, Fallbacks, Notifications, Enqueues, OrderEvents)
}
