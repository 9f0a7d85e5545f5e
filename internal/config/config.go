package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultCities = "Melbourne,Sydney,Brisbane,Perth,Adelaide"

// Config holds all service settings. Values come from, in increasing order of
// precedence: built-in defaults, the optional YAML file named by
// ETL_CONFIG_FILE, and environment variables (including a local .env file).
type Config struct {
	APIKey      string
	Cities      []string
	StorePath   string
	BaseURL     string
	Units       string
	HTTPTimeout time.Duration
	ReportPath  string

	// Interval of zero means run once and exit.
	Interval        time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaBrokers     []string
	KafkaEventsTopic string

	ConfigFile string
}

// fileConfig mirrors the subset of settings accepted from ETL_CONFIG_FILE.
// The API key is deliberately absent; it only comes from the environment.
type fileConfig struct {
	Cities     []string `yaml:"cities"`
	StorePath  string   `yaml:"store_path"`
	BaseURL    string   `yaml:"base_url"`
	Units      string   `yaml:"units"`
	Timeout    string   `yaml:"timeout"`
	ReportPath *string  `yaml:"report_path"`
	Interval   string   `yaml:"interval"`
	HTTPAddr   string   `yaml:"http_addr"`
	LogLevel   string   `yaml:"log_level"`
	LogFormat  string   `yaml:"log_format"`
	Kafka      struct {
		Brokers     []string `yaml:"brokers"`
		EventsTopic string   `yaml:"events_topic"`
	} `yaml:"kafka"`
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	configFile := os.Getenv("ETL_CONFIG_FILE")
	file, err := loadFile(configFile)
	if err != nil {
		return nil, err
	}

	timeout, err := parseDuration("OPENWEATHER_TIMEOUT", file.Timeout, "10s")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, errors.New("invalid OPENWEATHER_TIMEOUT: must be positive")
	}

	interval, err := parseDuration("ETL_INTERVAL", file.Interval, "0")
	if err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, errors.New("invalid ETL_INTERVAL: must not be negative")
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	reportPath := "weather_report.html"
	if file.ReportPath != nil {
		reportPath = *file.ReportPath
	}
	if v, ok := os.LookupEnv("REPORT_PATH"); ok {
		reportPath = v
	}

	cfg := &Config{
		APIKey:           os.Getenv("OPENWEATHER_API_KEY"),
		Cities:           parseCities(sharedcfg.EnvOrDefault("WEATHER_CITIES", orDefault(strings.Join(file.Cities, ","), defaultCities))),
		StorePath:        sharedcfg.EnvOrDefault("WEATHER_STORE_PATH", orDefault(file.StorePath, "weather_data.db")),
		BaseURL:          sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", orDefault(file.BaseURL, "http://api.openweathermap.org/data/2.5/weather")),
		Units:            sharedcfg.EnvOrDefault("OPENWEATHER_UNITS", orDefault(file.Units, "metric")),
		HTTPTimeout:      timeout,
		ReportPath:       reportPath,
		Interval:         interval,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", orDefault(file.HTTPAddr, ":8080")),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", orDefault(file.LogLevel, "info")),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", orDefault(file.LogFormat, "json")),
		ShutdownTimeout:  shutdownTimeout,
		KafkaBrokers:     parseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", strings.Join(file.Kafka.Brokers, ","))),
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", orDefault(file.Kafka.EventsTopic, "weather-etl-events")),
		ConfigFile:       configFile,
	}

	if cfg.APIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if len(cfg.Cities) == 0 {
		return nil, errors.New("WEATHER_CITIES must name at least one city")
	}
	if cfg.KafkaEnabled() && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether city outcome events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func parseDuration(key, fileValue, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, orDefault(fileValue, def))
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseCities splits a comma-separated list, trimming blanks and dropping
// empty entries. Order is preserved and duplicates are kept.
func parseCities(s string) []string {
	var cities []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

// parseBrokers returns nil for an empty list, which disables the event sink.
func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
