package store

import (
	"time"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
)

// weatherRow maps one row of the weather table. The table has no key: it is
// an append-only log and rows are read back in insertion (rowid) order.
type weatherRow struct {
	City               *string   `gorm:"column:city"`
	Temperature        *float64  `gorm:"column:temperature"`
	Humidity           *int64    `gorm:"column:humidity"`
	WeatherDescription *string   `gorm:"column:weather_description"`
	WindSpeed          *float64  `gorm:"column:wind_speed"`
	Timestamp          time.Time `gorm:"column:timestamp"`
}

func (weatherRow) TableName() string { return "weather" }

func fromRecord(r domain.WeatherRecord) weatherRow {
	return weatherRow{
		City:               r.City,
		Temperature:        r.Temperature,
		Humidity:           r.Humidity,
		WeatherDescription: r.WeatherDescription,
		WindSpeed:          r.WindSpeed,
		Timestamp:          r.Timestamp,
	}
}

func (w weatherRow) toRecord() domain.WeatherRecord {
	return domain.WeatherRecord{
		City:               w.City,
		Temperature:        w.Temperature,
		Humidity:           w.Humidity,
		WeatherDescription: w.WeatherDescription,
		WindSpeed:          w.WindSpeed,
		Timestamp:          w.Timestamp.Local(),
	}
}
