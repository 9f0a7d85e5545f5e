package pipeline

import (
	"time"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
)

// RunStatus summarizes a run as a whole.
type RunStatus string

const (
	// StatusCompleted means every city succeeded.
	StatusCompleted RunStatus = "completed"
	// StatusPartial means the run completed but at least one city failed.
	StatusPartial RunStatus = "completed_with_failures"
)

// CityResult records what happened to one city in a run.
type CityResult struct {
	City     string
	Stage    domain.Stage // the failing stage, or StageDone on success
	Err      error
	Record   *domain.WeatherRecord // set on success
	Duration time.Duration
}

// OK reports whether the city's record was appended.
func (c CityResult) OK() bool { return c.Err == nil }

// Outcome converts the result into the event published to sinks.
func (c CityResult) Outcome(runID string) domain.CityOutcome {
	o := domain.CityOutcome{
		RunID:    runID,
		City:     c.City,
		Outcome:  domain.OutcomeSuccess,
		Stage:    c.Stage,
		Record:   c.Record,
		Duration: c.Duration,
		At:       time.Now(),
	}
	if c.Err != nil {
		o.Outcome = domain.OutcomeFailure
		o.ErrorKind = domain.ErrorKind(c.Err)
		o.Error = c.Err.Error()
	}
	return o
}

// RunSummary is the per-city account of one run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []CityResult
}

// Succeeded returns the number of cities whose record was appended.
func (s RunSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of cities that failed at any stage.
func (s RunSummary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// PartialFailure reports whether any city failed.
func (s RunSummary) PartialFailure() bool {
	return s.Failed() > 0
}

// Status is StatusPartial when any city failed, StatusCompleted otherwise.
// A run is never reported as failed as a whole.
func (s RunSummary) Status() RunStatus {
	if s.PartialFailure() {
		return StatusPartial
	}
	return StatusCompleted
}

// Failures returns the failed results in run order.
func (s RunSummary) Failures() []CityResult {
	var out []CityResult
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
