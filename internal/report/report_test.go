package report_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
	"github.com/couchcryptid/weather-etl-service/internal/report"
	"github.com/couchcryptid/weather-etl-service/internal/store"
)

type fakeReader struct {
	records []domain.WeatherRecord
	avg     map[string]float64
	err     error
}

func (f *fakeReader) ReadAll(context.Context) ([]domain.WeatherRecord, error) {
	return f.records, f.err
}

func (f *fakeReader) ReadAverageTemperatureByCity(context.Context) (map[string]float64, error) {
	return f.avg, f.err
}

func ptr[T any](v T) *T { return &v }

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func TestView_TimeSeriesByCity_SortedAscending(t *testing.T) {
	r := &fakeReader{records: []domain.WeatherRecord{
		{City: ptr("Sydney"), Temperature: ptr(22.0), Timestamp: base.Add(2 * time.Hour)},
		{City: ptr("Perth"), Temperature: ptr(30.0), Timestamp: base},
		{City: ptr("Sydney"), Temperature: ptr(20.0), Timestamp: base},
		{City: ptr("Sydney"), Timestamp: base.Add(time.Hour)},   // no temperature
		{Temperature: ptr(5.0), Timestamp: base.Add(time.Hour)}, // no city
	}}

	series, err := report.NewView(r).TimeSeriesByCity(context.Background())
	require.NoError(t, err)

	want := map[string][]report.Point{
		"Sydney": {{Timestamp: base, Temperature: 20}, {Timestamp: base.Add(2 * time.Hour), Temperature: 22}},
		"Perth":  {{Timestamp: base, Temperature: 30}},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Fatalf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestView_PropagatesReadErrors(t *testing.T) {
	v := report.NewView(&fakeReader{err: errors.New("database is locked")})

	_, err := v.AggregateByCity(context.Background())
	assert.ErrorContains(t, err, "database is locked")

	_, err = v.TimeSeriesByCity(context.Background())
	assert.ErrorContains(t, err, "database is locked")

	_, err = v.Build(context.Background())
	assert.Error(t, err)
}

func TestView_AggregateByCity_OverStore(t *testing.T) {
	s, err := store.Open("file:report_aggregate?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Append(ctx, domain.WeatherRecord{City: ptr("Sydney"), Temperature: ptr(20.0), Timestamp: base}))
	require.NoError(t, s.Append(ctx, domain.WeatherRecord{City: ptr("Sydney"), Temperature: ptr(22.0), Timestamp: base.Add(time.Hour)}))

	before, err := s.Count(ctx)
	require.NoError(t, err)

	avg, err := report.NewView(s).AggregateByCity(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Sydney": 21.0}, avg)

	after, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "reports never write")
}

func sampleReport() report.Report {
	return report.Report{
		Averages: map[string]float64{"Sydney": 21.0, "Perth": 30.0},
		Series: map[string][]report.Point{
			"Sydney": {{Timestamp: base, Temperature: 20}, {Timestamp: base.Add(time.Hour), Temperature: 22}},
			"Perth":  {{Timestamp: base, Temperature: 30}},
		},
	}
}

func TestReport_Cities(t *testing.T) {
	assert.Equal(t, []string{"Perth", "Sydney"}, sampleReport().Cities())
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.TextRenderer{Series: true}.Render(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "AVG TEMP")
	assert.Contains(t, out, "21.00")
	assert.Contains(t, out, "30.00")
	assert.Less(t, strings.Index(out, "Perth"), strings.Index(out, "Sydney"))
	assert.Contains(t, out, "2025-03-14 10:00:00")
}

func TestTextRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.TextRenderer{}.Render(&buf, report.Report{}))
	assert.Contains(t, buf.String(), "CITY")
}

func TestChartRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.ChartRenderer{}.Render(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Temperature Over Time by City")
	assert.Contains(t, out, "Sydney")
	assert.Contains(t, out, "Perth")
}
