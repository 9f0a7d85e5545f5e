package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
)

func ptr[T any](v T) *T { return &v }

var observedAt = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func TestValidateRecords_Clean(t *testing.T) {
	p := validateRecords([]domain.WeatherRecord{
		{City: ptr("Sydney"), Temperature: ptr(21.5), Humidity: ptr(int64(60)), WindSpeed: ptr(3.1), Timestamp: observedAt},
		{Timestamp: observedAt},
	})
	assert.True(t, p.passed(), p.errors)
}

func TestValidateRecords_Flags(t *testing.T) {
	p := validateRecords([]domain.WeatherRecord{
		{City: ptr("Perth"), Humidity: ptr(int64(140)), Timestamp: observedAt},
		{City: ptr("Hobart"), WindSpeed: ptr(-1.0), Timestamp: observedAt},
		{City: ptr("Darwin")},
	})
	require.Len(t, p.errors, 3)
	assert.Contains(t, p.errors[0], "humidity 140")
	assert.Contains(t, p.errors[1], "wind speed")
	assert.Contains(t, p.errors[2], "missing timestamp")
}

func TestValidateAverages(t *testing.T) {
	records := []domain.WeatherRecord{
		{City: ptr("Sydney"), Temperature: ptr(20.0), Timestamp: observedAt},
		{City: ptr("Sydney"), Temperature: ptr(22.0), Timestamp: observedAt},
		{City: ptr("Perth"), Timestamp: observedAt},
		{Temperature: ptr(99.0), Timestamp: observedAt},
	}

	t.Run("consistent", func(t *testing.T) {
		p := validateAverages(records, map[string]float64{"Sydney": 21.0})
		assert.True(t, p.passed(), p.errors)
	})

	t.Run("mismatch", func(t *testing.T) {
		p := validateAverages(records, map[string]float64{"Sydney": 25.0})
		require.Len(t, p.errors, 1)
		assert.Contains(t, p.errors[0], "Sydney")
	})

	t.Run("missing and extra", func(t *testing.T) {
		p := validateAverages(records, map[string]float64{"Perth": 10.0})
		require.Len(t, p.errors, 2)
		assert.Contains(t, p.errors[0], "Sydney: missing from aggregate")
		assert.Contains(t, p.errors[1], "Perth: present in aggregate")
	})
}
