package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibichat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bibichat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Gateway metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bibichat_ws_active_connections",
			Help: "Open socket connections on this node",
		},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bibichat_ws_auth_failures_total",
			Help: "Handshakes refused because of an invalid credential token",
		},
	)

	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibichat_ws_events_emitted_total",
			Help: "Outbound events written to client send buffers",
		},
		[]string{"event"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibichat_ws_events_dropped_total",
			Help: "Outbound events dropped because a client buffer was full",
		},
		[]string{"event"},
	)

	InboundCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibichat_ws_inbound_commands_total",
			Help: "Inbound socket commands by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Business metrics
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibichat_notifications_dispatched_total",
			Help: "Notifications fanned out",
		},
		[]string{"scope"}, // "all" or "user"
	)

	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibichat_notification_sweep_runs_total",
			Help: "Scheduled notification sweeps",
		},
		[]string{"outcome"},
	)

	DMsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bibichat_dms_sent_total",
			Help: "Total direct messages sent",
		},
	)

	ChatLogsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bibichat_chat_logs_appended_total",
			Help: "Bot conversation turns stored",
		},
	)
)

// Middleware records request counts and latency per route pattern.
var onlineUsersOnce sync.Once

// RegisterOnlineUsers exposes the presence tracker's online user count. Only the first call registers.
func RegisterOnlineUsers(count func() int) {
	onlineUsersOnce.Do(func() {
		promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "bibichat_online_users",
				Help: "Users considered online by the presence tracker",
			},
			func() float64 { return float64(count()) },
		)
	})
}

func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(c.Response().StatusCode())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}
