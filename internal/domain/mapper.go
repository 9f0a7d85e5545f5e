package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	errNotAnObject   = errors.New("payload is not a JSON object")
	errTrailingInput = errors.New("unexpected data after JSON object")
)

// MapObservation flattens a raw OpenWeatherMap "current weather" payload into a
// WeatherRecord stamped with the current local time.
//
// Missing or wrongly typed fields at any level map to nil. Only a payload that
// cannot be decoded as a JSON object is rejected, with *MalformedInputError.
func MapObservation(raw RawObservation) (WeatherRecord, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return WeatherRecord{}, &MalformedInputError{Err: err}
	}
	if doc == nil {
		return WeatherRecord{}, &MalformedInputError{Err: errNotAnObject}
	}

	main := getObject(doc, "main")
	weather := getFirstObject(doc, "weather")
	wind := getObject(doc, "wind")

	return WeatherRecord{
		City:               getString(doc, "name"),
		Temperature:        getFloat(main, "temp"),
		Humidity:           getInt(main, "humidity"),
		WeatherDescription: getString(weather, "description"),
		WindSpeed:          getFloat(wind, "speed"),
		Timestamp:          clock.Now(),
	}, nil
}

// decodeObject keeps numbers as json.Number so an out-of-range value fails
// only its own field.
func decodeObject(raw RawObservation) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingInput
	}
	return doc, nil
}

func getObject(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getFirstObject(m map[string]any, key string) map[string]any {
	arr, ok := m[key].([]any)
	if !ok || len(arr) == 0 {
		return nil
	}
	if v, ok := arr[0].(map[string]any); ok {
		return v
	}
	return nil
}

func getString(m map[string]any, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

// getFloat returns nil for non-numbers and for values outside float64 range.
func getFloat(m map[string]any, key string) *float64 {
	num, ok := m[key].(json.Number)
	if !ok {
		return nil
	}
	v, err := num.Float64()
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// getInt rounds to the nearest integer and returns nil when the result does
// not fit in an int64.
func getInt(m map[string]any, key string) *int64 {
	v := getFloat(m, key)
	if v == nil {
		return nil
	}
	r := math.Round(*v)
	if r < math.MinInt64 || r >= math.MaxInt64 {
		return nil
	}
	n := int64(r)
	return &n
}
