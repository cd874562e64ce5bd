// Package kafka publishes report events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/internal/events"
)

// DefaultTopic is the topic report events are written to.
const DefaultTopic = "hotspot.report-scored"

// Writer produces ReportScored events. It implements events.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *zap.Logger) *Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes events in a single batch. Events are keyed by report ID
// so updates to one report stay ordered within a partition.
func (w *Writer) Publish(ctx context.Context, evs ...events.ReportScored) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(evs))
	for i := range evs {
		msg, err := serializeToMessage(evs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d report events: %w", len(msgs), err)
	}
	w.logger.Debug("published report events", zap.Int("count", len(msgs)))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(ev events.ReportScored) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.ReportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(events.TypeReportScored)},
			{Key: "trigger", Value: []byte(ev.Trigger)},
			{Key: "scored_at", Value: []byte(ev.ScoredAt.Format(time.RFC3339))},
		},
	}, nil
}
