package store

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
)

// Store is the SQLite-backed, append-only weather history.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at dsn, which may be a
// file path or a "file:" URI, and checks its schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}
	// SQLite allows a single writer; one pooled connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = sqlDB.Close()
		return nil, &domain.StorageError{Op: "schema", Err: err}
	}
	return &Store{db: db}, nil
}

// New wraps an already opened database and checks its schema.
func New(db *gorm.DB) (*Store, error) {
	if err := ensureSchema(db); err != nil {
		return nil, &domain.StorageError{Op: "schema", Err: err}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append writes one record inside its own transaction. The transaction is
// committed or rolled back, and its connection returned to the pool, on every
// exit path.
func (s *Store) Append(ctx context.Context, rec domain.WeatherRecord) error {
	row := fromRecord(rec)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return &domain.StorageError{Op: "append", Err: err}
	}
	return nil
}

// ReadAll returns every record in insertion order.
func (s *Store) ReadAll(ctx context.Context) ([]domain.WeatherRecord, error) {
	var rows []weatherRow
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, &domain.StorageError{Op: "read", Err: err}
	}

	out := make([]domain.WeatherRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toRecord()
	}
	return out, nil
}

// ReadAverageTemperatureByCity averages non-null temperatures per non-null city.
func (s *Store) ReadAverageTemperatureByCity(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		City    string
		AvgTemp float64
	}
	err := s.db.WithContext(ctx).
		Model(&weatherRow{}).
		Select("city, AVG(temperature) AS avg_temp").
		Where("city IS NOT NULL AND temperature IS NOT NULL").
		Group("city").
		Scan(&rows).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "aggregate", Err: err}
	}

	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.City] = r.AvgTemp
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&weatherRow{}).Count(&n).Error; err != nil {
		return 0, &domain.StorageError{Op: "count", Err: fmt.Errorf("count weather: %w", err)}
	}
	return n, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	return nil
}
