package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/DataRozhlas/covid-obce/internal/config"
	"github.com/DataRozhlas/covid-obce/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes snapshots to a Kafka topic, one message per district.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes every district of the snapshot in a single WriteMessages
// call. Messages are keyed by district name so a district always lands on the
// same partition.
func (w *Writer) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if len(snap.Districts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Districts))
	for i := range snap.Districts {
		msg, err := serializeDistrict(snap, snap.Districts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d district messages: %w", len(msgs), err)
	}
	w.logger.Debug("snapshot written to kafka", "snapshot_id", snap.ID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeDistrict marshals one enriched district into a Kafka message.
func serializeDistrict(snap *domain.Snapshot, d domain.EnrichedDistrict) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize district %q: %w", d.Name, err)
	}
	return kafkago.Message{
		Key:   []byte(d.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
			{Key: "layout", Value: []byte(snap.Layout)},
		},
	}, nil
}
