// Package usage provides generation event types and aggregation
// functions. All functions are pure - no side effects.
package usage

import "time"

// Mode identifies which generation path produced an event.
type Mode string

const (
	ModeSingle Mode = "single-ai"
	ModeDual   Mode = "dual-ai"
)

// Event represents one generation attempt (immutable value type).
type Event struct {
	ID          string
	UserID      string
	Mode        Mode
	RequestTier string // basic, premium, enterprise
	Kind        string // component or site
	Library     string
	Provider    string // "v0", "gateway", or "dual"
	StatusCode  int
	LatencyMs   int64
	CreditsUsed float64
	Completions int // 0 or 1
	PromptChars int
	ResultChars int
	Timestamp   time.Time
}

// Failed reports whether the event ended in an error response.
func (e Event) Failed() bool {
	return e.StatusCode >= 400
}

// NewEvent builds a generation event stamped with an ID and time.
func NewEvent(id, userID string, mode Mode, ts time.Time) Event {
	return Event{ID: id, UserID: userID, Mode: mode, Timestamp: ts}
}

// Summary represents aggregated generation usage for a period (value type).
type Summary struct {
	UserID       string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	RequestCount int64
	DualCount    int64
	ErrorCount   int64
	CreditsUsed  float64
	Completions  int64
	AvgLatencyMs int64
}

// Aggregate combines events into a summary.
// This is a PURE function.
func Aggregate(events []Event, periodStart, periodEnd time.Time) Summary {
	s := Summary{PeriodStart: periodStart, PeriodEnd: periodEnd}
	if len(events) == 0 {
		return s
	}

	var totalLatency int64
	for _, e := range events {
		if s.UserID == "" {
			s.UserID = e.UserID
		}
		s.RequestCount++
		if e.Mode == ModeDual {
			s.DualCount++
		}
		if e.Failed() {
			s.ErrorCount++
		}
		s.CreditsUsed += e.CreditsUsed
		s.Completions += int64(e.Completions)
		totalLatency += e.LatencyMs
	}

	s.AvgLatencyMs = totalLatency / s.RequestCount
	return s
}

// MergeSummaries combines summaries, expanding the period bounds and
// weight-averaging latency.
// This is a PURE function.
func MergeSummaries(summaries ...Summary) Summary {
	if len(summaries) == 0 {
		return Summary{}
	}

	result := summaries[0]
	for _, s := range summaries[1:] {
		if result.RequestCount+s.RequestCount > 0 {
			total := result.AvgLatencyMs*result.RequestCount + s.AvgLatencyMs*s.RequestCount
			result.AvgLatencyMs = total / (result.RequestCount + s.RequestCount)
		}
		result.RequestCount += s.RequestCount
		result.DualCount += s.DualCount
		result.ErrorCount += s.ErrorCount
		result.CreditsUsed += s.CreditsUsed
		result.Completions += s.Completions

		if s.PeriodStart.Before(result.PeriodStart) {
			result.PeriodStart = s.PeriodStart
		}
		if s.PeriodEnd.After(result.PeriodEnd) {
			result.PeriodEnd = s.PeriodEnd
		}
	}
	return result
}
