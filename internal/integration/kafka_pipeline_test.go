//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-etl-service/internal/adapter/openweather"
	"github.com/couchcryptid/weather-etl-service/internal/domain"
	"github.com/couchcryptid/weather-etl-service/internal/observability"
	"github.com/couchcryptid/weather-etl-service/internal/pipeline"
	"github.com/couchcryptid/weather-etl-service/internal/store"
)

const testEventsTopic = "test-weather-etl-events"

const sydneyPayload = `{
	"name": "Sydney",
	"main": {"temp": 21.5, "humidity": 64},
	"weather": [{"description": "few clouds"}],
	"wind": {"speed": 4.1}
}`

// fakeOpenWeather serves Sydney and fails every other city with a 503.
func fakeOpenWeather(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Sydney" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, sydneyPayload)
			return
		}
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestRunPublishesCityOutcomes runs the ETL against a fake weather API, a real
// SQLite store, and a real Kafka broker, then reads back one event per city.
func TestRunPublishesCityOutcomes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	logger := observability.DiscardLogger()
	metrics := observability.NewMetricsForTesting()

	history, err := store.Open(filepath.Join(t.TempDir(), "weather.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	api := fakeOpenWeather(t)
	source := openweather.NewClient("test-key", api.URL, "metric", 5*time.Second, metrics, logger)

	writer := kafka.NewEventWriter([]string{broker}, testEventsTopic, logger)
	t.Cleanup(func() { _ = writer.Close() })

	runner := pipeline.New(source, pipeline.ObservationMapper, history, logger, metrics, writer)
	summary := runner.Run(ctx, []string{"Sydney", "Perth"})

	require.Equal(t, 1, summary.Succeeded())
	require.Equal(t, 1, summary.Failed())

	count, err := history.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-events-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	events := make(map[string]domain.CityOutcome)
	for range 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read city outcome")

		var outcome domain.CityOutcome
		require.NoError(t, json.Unmarshal(msg.Value, &outcome))
		assert.Equal(t, string(msg.Key), outcome.City)
		assert.Equal(t, summary.RunID, outcome.RunID)
		events[outcome.City] = outcome
	}

	sydney := events["Sydney"]
	assert.Equal(t, domain.OutcomeSuccess, sydney.Outcome)
	assert.Equal(t, domain.StageDone, sydney.Stage)
	require.NotNil(t, sydney.Record)
	require.NotNil(t, sydney.Record.Temperature)
	assert.InDelta(t, 21.5, *sydney.Record.Temperature, 1e-9)

	perth := events["Perth"]
	assert.Equal(t, domain.OutcomeFailure, perth.Outcome)
	assert.Equal(t, domain.StageFetch, perth.Stage)
	assert.Equal(t, domain.KindFetch, perth.ErrorKind)
	assert.Contains(t, perth.Error, "503")
}
