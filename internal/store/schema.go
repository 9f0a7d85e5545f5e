package store

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
)

// SchemaVersion is the version of the weather table layout this build reads
// and writes. The schema is created on first open and never migrated.
const SchemaVersion = 1

var (
	// ErrSchemaVersion is returned by Open when the store was created by a
	// different schema version.
	ErrSchemaVersion = errors.New("unsupported schema version")
	// ErrSchemaColumns is returned by Open when the weather table lacks a required column.
	ErrSchemaColumns = errors.New("weather table is missing required columns")
)

const createSchemaMeta = `CREATE TABLE IF NOT EXISTS schema_meta (
	version    INTEGER NOT NULL PRIMARY KEY,
	applied_at DATETIME NOT NULL
)`

const createWeather = `CREATE TABLE IF NOT EXISTS weather (
	city                TEXT,
	temperature         REAL,
	humidity            INTEGER,
	weather_description TEXT,
	wind_speed          REAL,
	timestamp           DATETIME NOT NULL
)`

// weatherColumns lists the weather table columns in declaration order.
var weatherColumns = []string{"city", "temperature", "humidity", "weather_description", "wind_speed", "timestamp"}

type schemaMeta struct {
	Version   int       `gorm:"column:version;primaryKey;autoIncrement:false"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (schemaMeta) TableName() string { return "schema_meta" }

// ensureSchema creates the schema on a fresh database, or checks that an
// existing one matches SchemaVersion and carries every weather column.
func ensureSchema(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(createSchemaMeta).Error; err != nil {
			return fmt.Errorf("create schema_meta: %w", err)
		}

		var versions []int
		if err := tx.Model(&schemaMeta{}).Order("version").Pluck("version", &versions).Error; err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		if len(versions) == 0 {
			if err := tx.Exec(createWeather).Error; err != nil {
				return fmt.Errorf("create weather: %w", err)
			}
			if err := tx.Create(&schemaMeta{Version: SchemaVersion, AppliedAt: time.Now().UTC()}).Error; err != nil {
				return fmt.Errorf("record schema version: %w", err)
			}
		} else if v := versions[len(versions)-1]; v != SchemaVersion {
			return fmt.Errorf("%w: store has %d, want %d", ErrSchemaVersion, v, SchemaVersion)
		}

		return verifyColumns(tx)
	})
}

func verifyColumns(tx *gorm.DB) error {
	types, err := tx.Migrator().ColumnTypes("weather")
	if err != nil {
		return fmt.Errorf("inspect weather: %w", err)
	}
	have := make([]string, 0, len(types))
	for _, ct := range types {
		have = append(have, ct.Name())
	}

	var missing []string
	for _, col := range weatherColumns {
		if !slices.Contains(have, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrSchemaColumns, missing)
	}
	return nil
}
