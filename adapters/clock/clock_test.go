package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/duetgate/adapters/clock"
)

func TestReal(t *testing.T) {
	c := clock.Real{}
	before := time.Now()
	got := c.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v, outside [%v, %v]", got, before, after)
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := clock.NewFake(start)

	if !f.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", f.Now(), start)
	}

	f.Advance(time.Hour)
	if !f.Now().Equal(start.Add(time.Hour)) {
		t.Errorf("after Advance: %v", f.Now())
	}

	later := start.AddDate(0, 1, 0)
	f.Set(later)
	if !f.Now().Equal(later) {
		t.Errorf("after Set: %v", f.Now())
	}
}
