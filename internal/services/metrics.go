// Package services – Prometheus counters for the delivery engine.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// deliveriesTotal counts successfully delivered single items by kind.
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentgate_deliveries_total",
			Help: "Total number of delivered content items.",
		},
		[]string{"kind"},
	)

	// seriesTotal counts completed series expansions.
	seriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contentgate_series_expansions_total",
			Help: "Total number of completed series expansions.",
		},
	)
)

func init() {
	prometheus.MustRegister(deliveriesTotal, seriesTotal)
}
