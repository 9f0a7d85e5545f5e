// Package domain models current-weather observations and the flat records the
// ETL pipeline persists from them.
//
// # Data Source
//
// Observations come from the OpenWeatherMap "current weather" endpoint
// (https://openweathermap.org/current), queried by city name with metric units.
// Only a handful of fields are kept:
//
//	name                     → city
//	main.temp                → temperature (°C)
//	main.humidity            → humidity (%)
//	weather[0].description   → weather_description
//	wind.speed               → wind_speed (m/s)
//
// Every field is optional. The API omits blocks for some stations, so a missing
// block or a value of the wrong JSON type is recorded as NULL rather than
// rejected. The reported name is the API's resolved location and may differ
// from the query string ("Sydney" may come back as "Sydney" or a suburb).
//
// # Capture Time
//
// Records are stamped with the local wall-clock time at which the payload was
// mapped, not the API's own "dt" field. Repeated runs therefore accumulate a
// history even when the upstream observation has not changed.
//
// # Failures
//
// Failures are typed so the pipeline can record them per city:
// [TransportError], [FetchError], [MalformedInputError] and [StorageError].
// Use [ErrorKind] to classify an arbitrary error.
package domain
