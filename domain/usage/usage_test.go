package usage_test

import (
	"testing"
	"time"

	"github.com/artpar/duetgate/domain/usage"
)

var (
	start = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func TestAggregate(t *testing.T) {
	events := []usage.Event{
		{UserID: "u1", Mode: usage.ModeDual, StatusCode: 200, LatencyMs: 100, Completions: 1},
		{UserID: "u1", Mode: usage.ModeSingle, StatusCode: 200, LatencyMs: 300, CreditsUsed: 1},
		{UserID: "u1", Mode: usage.ModeDual, StatusCode: 500, LatencyMs: 200, CreditsUsed: 2},
	}

	s := usage.Aggregate(events, start, end)
	if s.UserID != "u1" {
		t.Errorf("UserID = %q", s.UserID)
	}
	if s.RequestCount != 3 || s.DualCount != 2 || s.ErrorCount != 1 {
		t.Errorf("counts: %+v", s)
	}
	if s.CreditsUsed != 3 || s.Completions != 1 {
		t.Errorf("spend: %+v", s)
	}
	if s.AvgLatencyMs != 200 {
		t.Errorf("AvgLatencyMs = %d, want 200", s.AvgLatencyMs)
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := usage.Aggregate(nil, start, end)
	if s.RequestCount != 0 {
		t.Errorf("RequestCount = %d", s.RequestCount)
	}
	if !s.PeriodStart.Equal(start) || !s.PeriodEnd.Equal(end) {
		t.Error("empty aggregate should keep the period bounds")
	}
}

func TestMergeSummaries(t *testing.T) {
	a := usage.Summary{
		UserID: "u1", PeriodStart: start, PeriodEnd: start.AddDate(0, 0, 15),
		RequestCount: 2, DualCount: 1, CreditsUsed: 2, AvgLatencyMs: 100,
	}
	b := usage.Summary{
		UserID: "u1", PeriodStart: start.AddDate(0, 0, 10), PeriodEnd: end,
		RequestCount: 2, ErrorCount: 1, Completions: 2, AvgLatencyMs: 300,
	}

	m := usage.MergeSummaries(a, b)
	if m.RequestCount != 4 || m.DualCount != 1 || m.ErrorCount != 1 {
		t.Errorf("counts: %+v", m)
	}
	if m.CreditsUsed != 2 || m.Completions != 2 {
		t.Errorf("spend: %+v", m)
	}
	if m.AvgLatencyMs != 200 {
		t.Errorf("AvgLatencyMs = %d, want weighted 200", m.AvgLatencyMs)
	}
	if !m.PeriodStart.Equal(start) || !m.PeriodEnd.Equal(end) {
		t.Errorf("period bounds: %v..%v", m.PeriodStart, m.PeriodEnd)
	}
}

func TestEventFailed(t *testing.T) {
	if (usage.Event{StatusCode: 200}).Failed() {
		t.Error("200 should not be a failure")
	}
	if !(usage.Event{StatusCode: 402}).Failed() {
		t.Error("402 should be a failure")
	}
}
