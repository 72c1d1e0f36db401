package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the webhook and job pipeline.
type PipelineMetrics struct {
	inboundTotal *prometheus.CounterVec
	jobsTotal    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobsInFlight prometheus.Gauge
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notes",
			Subsystem: "webhook",
			Name:      "inbound_events_total",
			Help:      "Total inbound webhook message events",
		}, []string{"event_type", "status"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notes",
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Total background note jobs by outcome",
		}, []string{"kind", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notes",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of background note jobs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "notes",
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Background note jobs currently running",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.jobsTotal, m.jobDuration, m.jobsInFlight)
	return m
}

func (m *PipelineMetrics) ObserveInbound(eventType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(eventType, status).Inc()
}

func (m *PipelineMetrics) ObserveJob(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(kind, outcome).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *PipelineMetrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsInFlight.Inc()
}

func (m *PipelineMetrics) JobFinished() {
	if m == nil {
		return
	}
	m.jobsInFlight.Dec()
}
