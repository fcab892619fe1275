package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/hubtab/internal/model"
	"github.com/cleared-dev/hubtab/internal/store/csvstore"
	"github.com/cleared-dev/hubtab/internal/store/memstore"
	"github.com/cleared-dev/hubtab/internal/store/sqlstore"
)

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := Open(ctx, root, Options{})
	require.NoError(t, err)
	cs, ok := s.(*csvstore.Store)
	require.True(t, ok, "empty backend defaults to csv")
	assert.Equal(t, filepath.Join(root, DefaultCSVPath), cs.Path())

	s, err = Open(ctx, root, Options{Backend: BackendCSV, Path: "/abs/ledger.csv"})
	require.NoError(t, err)
	assert.Equal(t, "/abs/ledger.csv", s.(*csvstore.Store).Path())

	s, err = Open(ctx, root, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, s)

	s, err = Open(ctx, root, Options{Backend: BackendSQLite})
	require.NoError(t, err)
	assert.IsType(t, &sqlstore.Store{}, s)
	require.NoError(t, s.Append(ctx, model.Transaction{Type: model.TypeBorrow, Participant: "X", Amount: 3}))
	require.NoError(t, s.Close())
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, t.TempDir(), Options{Backend: BackendPostgres})
	assert.Error(t, err, "postgres without DSN")

	_, err = Open(ctx, t.TempDir(), Options{Backend: "spreadsheet"})
	assert.Error(t, err)
}
