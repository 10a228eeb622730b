package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cable-health-service/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("4-2026-123"),
		Value:     []byte(`{"text":"SUBMARINE CABLE FAULT"}`),
		Topic:     "nga-broadcast-warnings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("nga")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("4-2026-123"), raw.Key)
	assert.JSONEq(t, `{"text":"SUBMARINE CABLE FAULT"}`, string(raw.Value))
	assert.Equal(t, "nga-broadcast-warnings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "nga", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	generated := time.Date(2026, 2, 15, 13, 0, 0, 0, time.UTC)
	rec := HealthRecord{
		CableID:     "marea",
		GeneratedAt: generated,
		CableHealth: domain.CableHealth{
			Status:      domain.StatusFault,
			Score:       0.89,
			Confidence:  0.89,
			LastUpdated: generated.Add(-time.Hour),
		},
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("marea"), msg.Key)
	assert.Contains(t, string(msg.Value), `"cableId":"marea"`)
	assert.Contains(t, string(msg.Value), `"status":"fault"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("fault"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(generated.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded HealthRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 0.89, decoded.Score)
	assert.True(t, decoded.GeneratedAt.Equal(generated))
}

func TestSnapshotToMessages_SortedByCable(t *testing.T) {
	snap := domain.HealthSnapshot{
		GeneratedAt: time.Date(2026, 2, 15, 13, 0, 0, 0, time.UTC),
		Cables: domain.HealthMap{
			"seamewe6": {Status: domain.StatusOK},
			"dunant":   {Status: domain.StatusDegraded},
			"marea":    {Status: domain.StatusFault},
		},
	}

	msgs, err := snapshotToMessages(snap)
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, "dunant", string(msgs[0].Key))
	assert.Equal(t, "marea", string(msgs[1].Key))
	assert.Equal(t, "seamewe6", string(msgs[2].Key))
}

func TestSnapshotToMessages_Empty(t *testing.T) {
	msgs, err := snapshotToMessages(domain.HealthSnapshot{Cables: domain.HealthMap{}})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
