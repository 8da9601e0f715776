package actor

import (
	"github.com/prometheus/client_golang/prometheus"
)

type systemMetrics struct {
	enqueued       prometheus.Counter
	processed      prometheus.Counter
	handlerErrors  prometheus.Counter
	remoteForwards prometheus.Counter
	alive          prometheus.Gauge
}

func newSystemMetrics(systemName string, reg prometheus.Registerer) *systemMetrics {
	labels := prometheus.Labels{"system": systemName}
	m := &systemMetrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "goactor",
			Name:        "messages_enqueued_total",
			Help:        "Messages enqueued into local mailboxes.",
			ConstLabels: labels,
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "goactor",
			Name:        "messages_processed_total",
			Help:        "Messages handled by Receive.",
			ConstLabels: labels,
		}),
		handlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "goactor",
			Name:        "handler_errors_total",
			Help:        "Receive calls that returned an error or panicked.",
			ConstLabels: labels,
		}),
		remoteForwards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "goactor",
			Name:        "remote_forwards_total",
			Help:        "Messages forwarded to another node.",
			ConstLabels: labels,
		}),
		alive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "goactor",
			Name:        "actors_alive",
			Help:        "Local actors registered in the system.",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.enqueued, m.processed, m.handlerErrors, m.remoteForwards, m.alive)
	}
	return m
}
