package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_received_total",
		Help: "Published events by outcome.",
	}, []string{"result"})
	eventsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_events_stored",
		Help: "Events currently held by the store.",
	})
	connectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connections",
		Help: "Connected websocket clients.",
	})
	subscriptionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_subscriptions",
		Help: "Live subscriptions across all connections.",
	})
	listenersOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_listeners",
		Help: "In-process exporters listening for stored events.",
	})
	fanoutDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_fanout_dropped_total",
		Help: "Live deliveries dropped because the subscriber was gone or too slow.",
	})
)
