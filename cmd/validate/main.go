// Command validate performs integrity checks on a weather history store:
// schema compatibility, per-record field sanity, and agreement between the
// stored rows and the aggregate queries used by the reports.
//
// Usage:
//
//	go run ./cmd/validate -store weather_data.db
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
	"github.com/couchcryptid/weather-etl-service/internal/report"
	"github.com/couchcryptid/weather-etl-service/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	storePath := flag.String("store", "", "path to the SQLite history store")
	printReport := flag.Bool("report", false, "print the per-city text report after validation")
	flag.Parse()

	if *storePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*storePath, *printReport); code != 0 {
		os.Exit(code)
	}
}

func run(storePath string, printReport bool) int {
	ctx := context.Background()

	fmt.Println("=== Weather History Integrity Validation ===")
	fmt.Println()

	if _, err := os.Stat(storePath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	history, err := store.Open(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open store: %v\n", err)
		return 1
	}
	defer history.Close()

	records, err := history.ReadAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read records: %v\n", err)
		return 1
	}

	averages, err := history.ReadAverageTemperatureByCity(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read averages: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRecords(records),
		validateAverages(records, averages),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d rows, %d cities with temperature data\n", len(records), len(averages))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if printReport {
		rep, err := report.NewView(history).Build(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: build report: %v\n", err)
			return 1
		}
		fmt.Println()
		if err := (report.TextRenderer{Series: true}).Render(os.Stdout, rep); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: print report: %v\n", err)
			return 1
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateRecords checks each row for values the mapper could never produce.
func validateRecords(records []domain.WeatherRecord) *phase {
	p := &phase{name: "Record field sanity"}
	for i, rec := range records {
		label := fmt.Sprintf("row %d (%s)", i+1, cityLabel(rec))
		if rec.Timestamp.IsZero() {
			p.errorf("%s: missing timestamp", label)
		}
		if rec.Temperature != nil && !isFinite(*rec.Temperature) {
			p.errorf("%s: temperature %v is not finite", label, *rec.Temperature)
		}
		if rec.WindSpeed != nil {
			if !isFinite(*rec.WindSpeed) || *rec.WindSpeed < 0 {
				p.errorf("%s: wind speed %v out of range", label, *rec.WindSpeed)
			}
		}
		if rec.Humidity != nil && (*rec.Humidity < 0 || *rec.Humidity > 100) {
			p.errorf("%s: humidity %d out of range [0,100]", label, *rec.Humidity)
		}
	}
	return p
}

// validateAverages recomputes per-city mean temperature from the rows and
// compares it with the stored aggregate.
func validateAverages(records []domain.WeatherRecord, stored map[string]float64) *phase {
	p := &phase{name: "Average temperature consistency"}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.City == nil || rec.Temperature == nil {
			continue
		}
		sums[*rec.City] += *rec.Temperature
		counts[*rec.City]++
	}

	cities := make([]string, 0, len(counts))
	for c := range counts {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	for _, c := range cities {
		want := sums[c] / float64(counts[c])
		got, ok := stored[c]
		if !ok {
			p.errorf("%s: missing from aggregate (expected %.4f)", c, want)
			continue
		}
		if !floatEq(got, want) {
			p.errorf("%s: aggregate %.4f, recomputed %.4f", c, got, want)
		}
	}
	for c := range stored {
		if _, ok := counts[c]; !ok {
			p.errorf("%s: present in aggregate but has no temperature rows", c)
		}
	}
	return p
}

func cityLabel(rec domain.WeatherRecord) string {
	if rec.City == nil {
		return "<no city>"
	}
	return *rec.City
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
