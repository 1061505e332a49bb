package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vearutop/imgblend"
)

// Metrics collects per-run counters for a node exporter textfile.
type Metrics struct {
	registry      *prometheus.Registry
	runsTotal     *prometheus.CounterVec
	inputsTotal   prometheus.Counter
	samplesTotal  prometheus.Counter
	stageDuration *prometheus.HistogramVec
	lastSuccess   prometheus.Gauge
}

// NewMetrics creates a registry with the imgblend collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgblend_runs_total",
			Help: "Blend runs by final status.",
		}, []string{"status"}),
		inputsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgblend_inputs_total",
			Help: "Input images blended.",
		}),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgblend_output_samples_total",
			Help: "Output samples produced.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imgblend_stage_duration_seconds",
			Help:    "Duration of decode, blend and encode stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imgblend_last_success_timestamp_seconds",
			Help: "Unix time of the last successful blend.",
		}),
	}
	m.registry.MustRegister(m.runsTotal, m.inputsTotal, m.samplesTotal, m.stageDuration, m.lastSuccess)
	return m
}

// Observe records a finished run; res is nil when err is not.
func (m *Metrics) Observe(res *imgblend.BlendResult, err error) {
	if err != nil {
		m.runsTotal.WithLabelValues(status(err)).Inc()
		return
	}
	m.runsTotal.WithLabelValues("ok").Inc()
	m.inputsTotal.Add(float64(len(res.Inputs)))
	m.samplesTotal.Add(float64(res.Shape.Len()))
	m.stageDuration.WithLabelValues("decode").Observe(res.Decode.Seconds())
	m.stageDuration.WithLabelValues("blend").Observe(res.Blend.Seconds())
	m.stageDuration.WithLabelValues("encode").Observe(res.Encode.Seconds())
	m.lastSuccess.SetToCurrentTime()
}

// WriteTextfile writes all metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
