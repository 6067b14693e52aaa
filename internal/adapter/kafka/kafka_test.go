package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aquawatch/groundwater-etl/internal/config"
	"github.com/aquawatch/groundwater-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("DWLR_PUNE_042"),
		Value:     []byte(`{"kind":"series"}`),
		Topic:     "dwlr-raw-telemetry",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "feed_run_id", Value: []byte("run-1")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("DWLR_PUNE_042"), raw.Key)
	assert.JSONEq(t, `{"kind":"series"}`, string(raw.Value))
	assert.Equal(t, "dwlr-raw-telemetry", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "run-1", raw.Headers["feed_run_id"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	event, err := domain.SerializeResult(domain.KindSample, "sample-0011223344556677", now, map[string]int{"wqi": 81})
	require.NoError(t, err)

	msg := toMessage(event)

	assert.Equal(t, []byte("sample-0011223344556677"), msg.Key)
	assert.JSONEq(t, `{"wqi":81}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("sample"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestNewTopicWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker:9092"}, KafkaSinkTopic: "groundwater-metrics"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sink := NewWriter(cfg, logger)
	assert.Equal(t, "groundwater-metrics", sink.writer.Topic)

	source := NewTopicWriter(cfg, "dwlr-raw-telemetry", logger)
	assert.Equal(t, "dwlr-raw-telemetry", source.writer.Topic)

	require.NoError(t, source.LoadBatch(context.Background(), nil))
}
