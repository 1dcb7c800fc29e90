package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jules_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jules_users_registered_total",
			Help: "Total users registered",
		},
	)

	ChatsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_chats_created_total",
			Help: "Total chats created",
		},
		[]string{"chat_type"}, // "direct" or "group"
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_messages_sent_total",
			Help: "Total messages persisted",
		},
		[]string{"via"}, // "http" or "socket"
	)

	// Real-time metrics
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jules_live_connections",
			Help: "Currently connected websocket clients",
		},
	)

	HandshakeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_handshake_failures_total",
			Help: "Total refused websocket handshakes",
		},
		[]string{"reason"},
	)

	SocketEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_socket_events_total",
			Help: "Total client events processed",
		},
		[]string{"event"},
	)

	SocketErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_socket_errors_total",
			Help: "Total scoped errors emitted to clients",
		},
		[]string{"event"},
	)

	BroadcastsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jules_broadcasts_delivered_total",
			Help: "Total payloads delivered to room members",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jules_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
