package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-etl-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-etl-service/internal/adapter/openweather"
	"github.com/couchcryptid/weather-etl-service/internal/config"
	"github.com/couchcryptid/weather-etl-service/internal/observability"
	"github.com/couchcryptid/weather-etl-service/internal/pipeline"
	"github.com/couchcryptid/weather-etl-service/internal/report"
	"github.com/couchcryptid/weather-etl-service/internal/scheduler"
	"github.com/couchcryptid/weather-etl-service/internal/store"
)

const (
	exitOK             = 0
	exitStartup        = 1
	exitPartialFailure = 2
)

const chartTitle = "Temperature by City"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitStartup
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	history, err := store.Open(cfg.StorePath)
	if err != nil {
		logger.Error("failed to open history store", "path", cfg.StorePath, "error", err)
		return exitStartup
	}
	defer func() {
		if err := history.Close(); err != nil {
			logger.Error("history store close error", "error", err)
		}
	}()

	source := openweather.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Units, cfg.HTTPTimeout, metrics, logger)

	var sinks []pipeline.EventSink
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewEventWriter(cfg.KafkaBrokers, cfg.KafkaEventsTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("city outcome events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEventsTopic)
	}

	runner := pipeline.New(source, pipeline.ObservationMapper, history, logger, metrics, sinks...)
	view := report.NewView(history)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Interval > 0 {
		return serve(ctx, cfg, runner, view, logger)
	}
	return runOnce(ctx, runner, view, cfg.Cities, cfg.ReportPath, os.Stdout, logger)
}

// runOnce performs a single ETL run, prints the per-city status and text
// report to out, and writes the chart. The report is produced even when every
// city failed. It returns exitPartialFailure when any city failed.
func runOnce(ctx context.Context, runner *pipeline.Runner, view *report.View, cities []string, reportPath string, out io.Writer, logger *slog.Logger) int {
	summary := runner.Run(ctx, cities)
	for _, res := range summary.Results {
		if res.OK() {
			fmt.Fprintf(out, "Data for %s loaded successfully\n", res.City)
		} else {
			fmt.Fprintf(out, "Failed to load data for %s: %v\n", res.City, res.Err)
		}
	}

	if rep, err := view.Build(ctx); err != nil {
		logger.Error("failed to build report", "error", err)
	} else {
		if err := (report.TextRenderer{}).Render(out, rep); err != nil {
			logger.Error("failed to print report", "error", err)
		}
		if err := writeChart(reportPath, rep); err != nil {
			logger.Error("failed to write chart", "path", reportPath, "error", err)
		}
	}

	if summary.PartialFailure() {
		return exitPartialFailure
	}
	return exitOK
}

// serve runs the ETL on an interval alongside the ops HTTP server until ctx
// is cancelled.
func serve(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, view *report.View, logger *slog.Logger) int {
	chart := report.ChartRenderer{Title: chartTitle}
	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, view, chart, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := scheduler.New(cfg.Interval, func(ctx context.Context) {
		runner.Run(ctx, cfg.Cities)
		if cfg.ReportPath == "" {
			return
		}
		rep, err := view.Build(ctx)
		if err != nil {
			logger.Error("failed to build report", "error", err)
			return
		}
		if err := writeChart(cfg.ReportPath, rep); err != nil {
			logger.Error("failed to write chart", "path", cfg.ReportPath, "error", err)
		}
	}, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return exitStartup
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return exitOK
}

// writeChart renders the interactive chart to path. An empty path disables it.
func writeChart(path string, rep report.Report) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := (report.ChartRenderer{Title: chartTitle}).Render(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
