package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eztel_poll_ticks_total",
		Help: "Number of poll ticks processed.",
	})

	metricLapsFlushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eztel_laps_flushed_total",
		Help: "Number of lap buffers flushed downstream, by result.",
	}, []string{"result"})

	metricStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eztel_session_stops_total",
		Help: "Number of stop conditions detected, by reason.",
	}, []string{"reason"})

	metricOpponentLaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eztel_opponent_laps_emitted_total",
		Help: "Number of opponent fastest laps emitted.",
	})

	metricSamplesBuffered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eztel_samples_buffered",
		Help: "Samples currently buffered for the local driver's lap.",
	})
)
