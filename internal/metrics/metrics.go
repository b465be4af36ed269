package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesSent counts successfully persisted outbound messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Number of messages persisted by the message service",
	})

	// WsConnections tracks currently registered websocket connections.
	WsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_ws_connections",
		Help: "Currently registered websocket connections",
	})

	// NotifyDropped counts realtime events dropped because the recipient
	// had no live connection or a full egress buffer.
	NotifyDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_notify_dropped_total",
		Help: "Realtime events dropped without delivery",
	})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
