package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestObserveInboundCountsByTypeAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveInbound("text", "echo")
	m.ObserveInbound("text", "echo")
	m.ObserveInbound("audio", "ack")

	mf := gatherMetric(t, reg, "notes_webhook_inbound_events_total")
	if len(mf.Metric) != 2 {
		t.Fatalf("expected two label combinations, got %d", len(mf.Metric))
	}

	total := 0.0
	for _, metric := range mf.Metric {
		total += metric.GetCounter().GetValue()
	}
	if total != 3 {
		t.Fatalf("expected 3 observations, got %v", total)
	}
}

func TestObserveJobRecordsOutcomeAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveJob("summary", "saved", 0.25)
	m.ObserveJob("summary", "failed", 1.5)

	jobs := gatherMetric(t, reg, "notes_jobs_total")
	if len(jobs.Metric) != 2 {
		t.Fatalf("expected two outcome series, got %d", len(jobs.Metric))
	}

	duration := gatherMetric(t, reg, "notes_jobs_duration_seconds")
	if got := duration.Metric[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 duration samples, got %d", got)
	}
}

func TestJobInFlightGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.JobStarted()
	m.JobStarted()
	m.JobFinished()

	mf := gatherMetric(t, reg, "notes_jobs_in_flight")
	if got := mf.Metric[0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("expected 1 in-flight job, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *PipelineMetrics

	m.ObserveInbound("text", "echo")
	m.ObserveJob("summary", "saved", 0.1)
	m.JobStarted()
	m.JobFinished()
}
