package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-etl-service/internal/domain"
)

// EventWriter publishes city outcome events to a Kafka topic.
// It implements pipeline.EventSink.
type EventWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewEventWriter creates a Kafka producer for the events topic.
func NewEventWriter(brokers []string, topic string, logger *slog.Logger) *EventWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &EventWriter{writer: w, logger: logger}
}

// Publish writes one outcome, keyed by city so a city's events stay ordered
// within a partition.
func (w *EventWriter) Publish(ctx context.Context, outcome domain.CityOutcome) error {
	msg, err := outcomeMessage(outcome)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish city outcome: %w", err)
	}
	w.logger.Debug("city outcome published", "topic", w.writer.Topic, "city", outcome.City, "outcome", outcome.Outcome)
	return nil
}

func (w *EventWriter) Close() error {
	return w.writer.Close()
}

// outcomeMessage marshals a CityOutcome into a Kafka message.
func outcomeMessage(outcome domain.CityOutcome) (kafkago.Message, error) {
	data, err := domain.MarshalOutcome(outcome)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize city outcome: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(outcome.City),
		Value: data,
		Time:  outcome.At,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(outcome.RunID)},
			{Key: "outcome", Value: []byte(outcome.Outcome)},
			{Key: "processed_at", Value: []byte(outcome.At.Format(time.RFC3339))},
		},
	}, nil
}
