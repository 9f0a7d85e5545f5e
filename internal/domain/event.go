package domain

import (
	"encoding/json"
	"time"
)

// RawObservation is the unmodified response body returned by the weather API
// for one city. It is consumed by MapObservation and then discarded.
type RawObservation []byte

// WeatherRecord is the flat, persisted representation of one observation.
// Every field except Timestamp is optional; nil means the source omitted it.
type WeatherRecord struct {
	City               *string   `json:"city"`
	Temperature        *float64  `json:"temperature"`
	Humidity           *int64    `json:"humidity"`
	WeatherDescription *string   `json:"weather_description"`
	WindSpeed          *float64  `json:"wind_speed"`
	Timestamp          time.Time `json:"timestamp"`
}

// CityName returns the resolved city name, or "" when the source omitted it.
func (r WeatherRecord) CityName() string {
	if r.City == nil {
		return ""
	}
	return *r.City
}

// Stage names the pipeline step a city reached (or failed in).
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageMap    Stage = "map"
	StageAppend Stage = "append"
	StageDone   Stage = "done"
)

// Outcome is the terminal state of one city within a run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// CityOutcome is the structured event emitted once per city per run.
type CityOutcome struct {
	RunID     string         `json:"run_id"`
	City      string         `json:"city"`
	Outcome   Outcome        `json:"outcome"`
	Stage     Stage          `json:"stage"`
	ErrorKind Kind           `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	Record    *WeatherRecord `json:"record,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	At        time.Time      `json:"at"`
}

// MarshalOutcome serializes a CityOutcome for event sinks.
func MarshalOutcome(o CityOutcome) ([]byte, error) {
	return json.Marshal(o)
}
