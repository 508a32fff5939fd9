package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveview_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liveview_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	DocumentMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveview_document_mutations_total",
			Help: "Total document mutations",
		},
		[]string{"kind"}, // "created", "updated" or "deleted"
	)

	ChatMessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liveview_chat_messages_posted_total",
			Help: "Total chat messages posted",
		},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveview_tool_calls_total",
			Help: "Total MCP tool calls",
		},
		[]string{"tool"},
	)

	// Broadcast hub metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveview_events_published_total",
			Help: "Total events published to the broadcast hub",
		},
		[]string{"topic"},
	)

	SubscribersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liveview_subscribers_active",
			Help: "Currently registered hub subscribers",
		},
		[]string{"topic"},
	)

	SlowConsumersEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liveview_slow_consumers_evicted_total",
			Help: "Total subscribers evicted for queue overflow",
		},
	)

	// Watcher metrics
	WatcherEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveview_watcher_events_total",
			Help: "Total filesystem events applied to the store",
		},
		[]string{"kind"},
	)
)
