package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
	"github.com/couchcryptid/weather-etl-service/internal/observability"
)

// Source fetches the raw observation for one city.
type Source interface {
	Fetch(ctx context.Context, city string) (domain.RawObservation, error)
}

// Mapper converts a raw observation into a flat record.
type Mapper interface {
	Map(raw domain.RawObservation) (domain.WeatherRecord, error)
}

// Appender persists one record.
type Appender interface {
	Append(ctx context.Context, rec domain.WeatherRecord) error
}

// EventSink receives one CityOutcome per city per run. Errors are logged and
// counted but never change the outcome of the run.
type EventSink interface {
	Publish(ctx context.Context, outcome domain.CityOutcome) error
}

// MapperFunc adapts a plain function to Mapper.
type MapperFunc func(raw domain.RawObservation) (domain.WeatherRecord, error)

func (f MapperFunc) Map(raw domain.RawObservation) (domain.WeatherRecord, error) { return f(raw) }

// ObservationMapper is the production Mapper backed by domain.MapObservation.
var ObservationMapper = MapperFunc(domain.MapObservation)

// Runner orchestrates fetch → map → append for a list of cities, one at a time.
type Runner struct {
	source  Source
	mapper  Mapper
	store   Appender
	sinks   []EventSink
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Runner with the given stages, observability, and optional event sinks.
// A nil metrics records to an unregistered set.
func New(source Source, mapper Mapper, store Appender, logger *slog.Logger, metrics *observability.Metrics, sinks ...EventSink) *Runner {
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Runner{
		source:  source,
		mapper:  mapper,
		store:   store,
		sinks:   sinks,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no ETL run has completed yet")
	}
	return nil
}

// Run processes every city in order. A failure in any step for one city is
// recorded in the summary and the run moves on to the next city; Run itself
// never fails because of a city. Only a record that survived fetch and map is
// appended.
func (r *Runner) Run(ctx context.Context, cities []string) RunSummary {
	summary := RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]CityResult, 0, len(cities)),
	}

	r.logger.Info("etl run started", "run_id", summary.RunID, "cities", len(cities))
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	for _, city := range cities {
		res := r.processCity(ctx, city)
		summary.Results = append(summary.Results, res)
		r.emit(ctx, summary.RunID, res)
	}

	summary.FinishedAt = time.Now()
	r.metrics.RunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	r.metrics.LastRunUnix.Set(float64(summary.FinishedAt.Unix()))
	r.ready.Store(true)

	r.logger.Info("etl run complete",
		"run_id", summary.RunID,
		"status", summary.Status(),
		"succeeded", summary.Succeeded(),
		"failed", summary.Failed(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary
}

// processCity runs the three steps for one city and reports where it stopped.
func (r *Runner) processCity(ctx context.Context, city string) CityResult {
	start := time.Now()
	res := CityResult{City: city}

	fail := func(stage domain.Stage, err error) CityResult {
		res.Stage = stage
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	raw, err := r.source.Fetch(ctx, city)
	if err != nil {
		return fail(domain.StageFetch, err)
	}

	rec, err := r.mapper.Map(raw)
	if err != nil {
		return fail(domain.StageMap, err)
	}

	if err := r.store.Append(ctx, rec); err != nil {
		return fail(domain.StageAppend, err)
	}
	r.metrics.RecordsAppended.Inc()

	res.Stage = domain.StageDone
	res.Record = &rec
	res.Duration = time.Since(start)
	return res
}

// emit logs, counts, and publishes the outcome of one city.
func (r *Runner) emit(ctx context.Context, runID string, res CityResult) {
	outcome := res.Outcome(runID)
	r.metrics.CityOutcomes.WithLabelValues(string(outcome.Stage), string(outcome.Outcome)).Inc()

	if res.Err != nil {
		r.logger.Warn("city failed",
			"run_id", runID,
			"city", res.City,
			"stage", res.Stage,
			"error_kind", outcome.ErrorKind,
			"error", res.Err,
		)
	} else {
		r.logger.Info("city loaded",
			"run_id", runID,
			"city", res.City,
			"resolved_city", res.Record.CityName(),
			"duration", res.Duration,
		)
	}

	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, outcome); err != nil {
			r.metrics.EventPublishErrors.Inc()
			r.logger.Warn("publish city outcome failed", "run_id", runID, "city", res.City, "error", err)
		}
	}
}
