package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/hubtab/internal/model"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.FixedZone("JST", 9*3600))
	txs := []model.Transaction{
		{Timestamp: at, Type: model.TypeRepay, Participant: "X", Amount: -400, Memo: "cash"},
	}

	ev := NewEvent(KindAppended, "repay", at, txs)
	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, KindAppended, ev.Kind)
	assert.Equal(t, time.UTC, ev.At.Location())
	require.Len(t, ev.Transactions, 1)
	assert.Equal(t, "2025-05-01 10:00:00", ev.Transactions[0].Timestamp)
	assert.Equal(t, int64(-400), ev.Transactions[0].Amount)

	other := NewEvent(KindAppended, "repay", at, txs)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestEventJSON(t *testing.T) {
	ev := NewEvent(KindUndone, "undo", time.Now(), nil)
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "undone", m["kind"])
	assert.NotContains(t, m, "transactions")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}

func TestNewKafkaPublisher_DefaultTopic(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Equal(t, DefaultTopic, p.writer.Topic)
	require.NoError(t, p.Close())
}
