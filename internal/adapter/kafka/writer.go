package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geo-kpi-service/internal/config"
	"github.com/couchcryptid/geo-kpi-service/internal/dashboard"
)

// CountrySnapshot is the message value published for one country of a geo
// snapshot. All messages of a snapshot share SnapshotID.
type CountrySnapshot struct {
	SnapshotID  string     `json:"snapshot_id"`
	Rank        int        `json:"rank"`
	CountryCode string     `json:"country_code"`
	CountryName string     `json:"country_name"`
	Sales       float64    `json:"sales"`
	Orders      float64    `json:"orders"`
	Fill        string     `json:"fill"`
	Currency    string     `json:"currency"`
	UpdatedAt   *time.Time `json:"updated_at"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces geo snapshots to a Kafka topic.
// It implements pipeline.SnapshotLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured geo topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaGeoTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadSnapshot publishes one message per country, keyed by country code, in
// a single WriteMessages call.
func (w *Writer) LoadSnapshot(ctx context.Context, view dashboard.GeoView) error {
	if len(view.Entries) == 0 {
		return nil
	}
	id := uuid.NewString()
	msgs, err := snapshotMessages(id, view)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write geo snapshot %s: %w", id, err)
	}
	w.logger.Debug("geo snapshot written", "snapshot_id", id, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func snapshotMessages(id string, view dashboard.GeoView) ([]kafkago.Message, error) {
	headers := []kafkago.Header{
		{Key: "snapshot_id", Value: []byte(id)},
		{Key: "fetched_at", Value: []byte(view.FetchedAt.UTC().Format(time.RFC3339))},
		{Key: "currency", Value: []byte(view.Meta.Currency)},
	}

	msgs := make([]kafkago.Message, len(view.Entries))
	for i, e := range view.Entries {
		data, err := json.Marshal(CountrySnapshot{
			SnapshotID:  id,
			Rank:        i + 1,
			CountryCode: e.CountryCode,
			CountryName: e.CountryName,
			Sales:       e.Sales,
			Orders:      e.Orders,
			Fill:        view.Fills[e.CountryCode],
			Currency:    view.Meta.Currency,
			UpdatedAt:   view.Meta.UpdatedAt,
			FetchedAt:   view.FetchedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("serialize geo entry %s: %w", e.CountryCode, err)
		}
		msgs[i] = kafkago.Message{
			Key:     []byte(e.CountryCode),
			Value:   data,
			Headers: headers,
		}
	}
	return msgs, nil
}
