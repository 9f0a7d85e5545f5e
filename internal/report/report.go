package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
)

// Reader is the read-only side of the history store.
type Reader interface {
	ReadAll(ctx context.Context) ([]domain.WeatherRecord, error)
	ReadAverageTemperatureByCity(ctx context.Context) (map[string]float64, error)
}

// Point is one temperature sample in a city's time series.
type Point struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
}

// Report is everything a Renderer draws.
type Report struct {
	Averages map[string]float64
	Series   map[string][]Point
}

// Renderer draws a Report. Implementations are interchangeable.
type Renderer interface {
	Render(w io.Writer, r Report) error
}

// View builds aggregate and time-series views over the history store. It never
// writes to the store.
type View struct {
	store Reader
}

// NewView creates a View over store.
func NewView(store Reader) *View {
	return &View{store: store}
}

// AggregateByCity returns the average temperature per city.
func (v *View) AggregateByCity(ctx context.Context) (map[string]float64, error) {
	avg, err := v.store.ReadAverageTemperatureByCity(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate by city: %w", err)
	}
	return avg, nil
}

// TimeSeriesByCity groups temperatures by city, each series sorted ascending
// by timestamp. Records without a city or temperature cannot be plotted and
// are skipped.
func (v *View) TimeSeriesByCity(ctx context.Context) (map[string][]Point, error) {
	recs, err := v.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("time series by city: %w", err)
	}

	series := make(map[string][]Point)
	for _, r := range recs {
		if r.City == nil || r.Temperature == nil {
			continue
		}
		series[*r.City] = append(series[*r.City], Point{Timestamp: r.Timestamp, Temperature: *r.Temperature})
	}
	for _, pts := range series {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Timestamp.Before(pts[j].Timestamp) })
	}
	return series, nil
}

// Build collects both views into a Report.
func (v *View) Build(ctx context.Context) (Report, error) {
	avg, err := v.AggregateByCity(ctx)
	if err != nil {
		return Report{}, err
	}
	series, err := v.TimeSeriesByCity(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{Averages: avg, Series: series}, nil
}

// Cities returns the city names present in r, sorted.
func (r Report) Cities() []string {
	seen := make(map[string]struct{}, len(r.Averages)+len(r.Series))
	for c := range r.Averages {
		seen[c] = struct{}{}
	}
	for c := range r.Series {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
