package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/hubtab/internal/model"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	ok, err := s.DeleteLast(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Append(ctx, model.Transaction{Participant: "X", Amount: 1}))
	require.NoError(t, s.Append(ctx, model.Transaction{Participant: "Y", Amount: 2}))

	ok, err = s.DeleteLast(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	rows, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Participant)

	rows[0].Participant = "mutated"
	again, _ := s.Load(ctx)
	assert.Equal(t, "X", again[0].Participant)
}
