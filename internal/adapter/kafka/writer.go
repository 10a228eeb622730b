package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cable-health-service/internal/config"
	"github.com/couchcryptid/cable-health-service/internal/domain"
)

// HealthRecord is the message value written for each cable in a snapshot.
type HealthRecord struct {
	CableID     string    `json:"cableId"`
	GeneratedAt time.Time `json:"generatedAt"`
	domain.CableHealth
}

// Writer produces cable health messages to a Kafka topic.
// It implements pipeline.SnapshotWriter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot writes one message per cable, keyed by cable ID, in a
// single WriteMessages call. It returns the number of messages written.
func (w *Writer) PublishSnapshot(ctx context.Context, snap domain.HealthSnapshot) (int, error) {
	msgs, err := snapshotToMessages(snap)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write health messages: %w", err)
	}
	w.logger.Debug("health snapshot published", "cables", len(msgs), "generated_at", snap.GeneratedAt)
	return len(msgs), nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// snapshotToMessages serializes a snapshot in cable ID order so partitions
// receive a deterministic sequence.
func snapshotToMessages(snap domain.HealthSnapshot) ([]kafkago.Message, error) {
	ids := make([]string, 0, len(snap.Cables))
	for id := range snap.Cables {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	msgs := make([]kafkago.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := serializeToMessage(HealthRecord{
			CableID:     id,
			GeneratedAt: snap.GeneratedAt,
			CableHealth: snap.Cables[id],
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals a HealthRecord into a Kafka message.
func serializeToMessage(rec HealthRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize cable health %s: %w", rec.CableID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.CableID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(rec.Status)},
			{Key: "generated_at", Value: []byte(rec.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
