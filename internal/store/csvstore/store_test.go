package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ledger", "transactions.csv"))
	txs, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestStore_AppendWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger", "transactions.csv")
	s := New(path)

	for _, tx := range sampleRows() {
		require.NoError(t, s.Append(ctx, tx))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4, "header + 3 rows")
	assert.Equal(t, Header, lines[0])

	txs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "Y", txs[1].Participant)
	assert.Equal(t, int64(-400), txs[2].Amount)
}

func TestStore_DeleteLast(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := New(path)

	ok, err := s.DeleteLast(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "missing file has nothing to delete")

	for _, tx := range sampleRows() {
		require.NoError(t, s.Append(ctx, tx))
	}

	ok, err = s.DeleteLast(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	txs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Y", txs[1].Participant)

	// Append still works after a rewrite.
	require.NoError(t, s.Append(ctx, sampleRows()[2]))
	txs, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStore_DeleteLastHeaderOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(Header+"\n"), 0o644))

	ok, err := New(path).DeleteLast(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n", string(data))
}
