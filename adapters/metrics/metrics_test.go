package metrics_test

import (
	"testing"
	"time"

	"github.com/artpar/duetgate/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewWithRegistry(reg)

	c.RecordRequest("/v1/generate", 200, 50*time.Millisecond)
	c.RecordRequest("/v1/generate", 200, 70*time.Millisecond)
	c.RecordRequest("/v1/generate", 402, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("/v1/generate", "200")); got != 2 {
		t.Errorf("200 count = %v", got)
	}
	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("/v1/generate", "402")); got != 1 {
		t.Errorf("402 count = %v", got)
	}
}

func TestRecordGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewWithRegistry(reg)

	c.RecordGeneration("v0", true, time.Second)
	c.RecordGeneration("v0", false, time.Second)
	c.RecordGeneration("gateway", true, time.Second)

	if got := testutil.ToFloat64(c.GenerationsTotal.WithLabelValues("v0", "error")); got != 1 {
		t.Errorf("v0 errors = %v", got)
	}
	if got := testutil.ToFloat64(c.GenerationsTotal.WithLabelValues("gateway", "success")); got != 1 {
		t.Errorf("gateway successes = %v", got)
	}
}

func TestRecordSpend(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewWithRegistry(reg)

	c.RecordSpend(2, 0)
	c.RecordSpend(0, 1)
	c.RecordSpend(1, 0)

	if got := testutil.ToFloat64(c.CreditsSpent); got != 3 {
		t.Errorf("credits = %v", got)
	}
	if got := testutil.ToFloat64(c.CompletionsSpent); got != 1 {
		t.Errorf("completions = %v", got)
	}
}
