package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	restRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "click_rest_requests_total",
			Help: "Total number of REST requests issued by the sync client.",
		},
		[]string{"method", "route", "status"},
	)
	restRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "click_rest_request_duration_seconds",
			Help:    "REST request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	channelActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "click_channel_active",
			Help: "Number of open push channels.",
		},
		[]string{"kind"},
	)
	channelEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "click_channel_events_total",
			Help: "Total number of push channel events.",
		},
		[]string{"kind", "event"},
	)
	timelineAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "click_timeline_appends_total",
			Help: "Total number of timeline appends by origin.",
		},
		[]string{"origin"},
	)
	contactRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "click_contact_refreshes_total",
			Help: "Total number of applied contact list refreshes.",
		},
	)
	sessionInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "click_session_invalidations_total",
			Help: "Total number of session invalidations.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "click_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		restRequestsTotal,
		restRequestDuration,
		channelActive,
		channelEventsTotal,
		timelineAppendsTotal,
		contactRefreshesTotal,
		sessionInvalidationsTotal,
		amqpPublishErrorsTotal,
	)
}

func ObserveRESTRequest(method, route string, status int, duration time.Duration) {
	restRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	restRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func IncChannelActive(kind string) {
	channelActive.WithLabelValues(kind).Inc()
}

func DecChannelActive(kind string) {
	channelActive.WithLabelValues(kind).Dec()
}

func IncChannelEvent(kind, event string) {
	channelEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncTimelineAppend(origin string) {
	timelineAppendsTotal.WithLabelValues(origin).Inc()
}

func IncContactRefresh() {
	contactRefreshesTotal.Inc()
}

func IncSessionInvalidation() {
	sessionInvalidationsTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
