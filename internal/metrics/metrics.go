// Package metrics объявляет счётчики Prometheus сервиса eventhub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки result.
const (
	ResultSuccess   = "success"
	ResultFull      = "full"
	ResultDuplicate = "duplicate"
	ResultAlready   = "already"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

var (
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "registrations_total",
		Help:      "Registration attempts by result.",
	}, []string{"result"})

	Cancellations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "cancellations_total",
		Help:      "Registrations moved to the cancelled status.",
	})

	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "checkins_total",
		Help:      "QR check-in scans by result.",
	}, []string{"result"})

	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "events_created_total",
		Help:      "Events created.",
	})

	EventsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "events_deleted_total",
		Help:      "Events deleted together with their registrations.",
	})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "notifications_published_total",
		Help:      "Notification messages published by routing key and result.",
	}, []string{"routing_key", "result"})
)
