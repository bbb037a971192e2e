// Package metrics holds the Prometheus collectors for notification delivery
// and presence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery paths recorded by NotificationsDispatched.
const (
	PathBroadcast = "broadcast"
	PathLive      = "live"
	PathStored    = "stored"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of persisted notifications by type and delivery path",
		},
		[]string{"type", "path"},
	)

	NotificationDispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_failures_total",
			Help: "Total number of dispatches that failed to persist",
		},
		[]string{"type"},
	)

	NotificationLiveEmits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_live_emits_total",
			Help: "Live notification emits to sessions by result (delivered, dropped)",
		},
		[]string{"result"},
	)

	PresenceSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_sessions",
			Help: "Current number of registered live sessions",
		},
	)

	PresenceUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_users",
			Help: "Current number of users with at least one live session",
		},
	)

	NotificationsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_pruned_total",
			Help: "Total number of notifications removed by the retention job",
		},
	)
)
