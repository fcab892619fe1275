// Package store defines the append-only transaction log the ledger is
// computed from, and opens one of its backends.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/hubtab/internal/model"
	"github.com/cleared-dev/hubtab/internal/store/csvstore"
	"github.com/cleared-dev/hubtab/internal/store/memstore"
	"github.com/cleared-dev/hubtab/internal/store/sqlstore"
)

// Store is an append-only sequence of transaction rows.
//
// Load returns every row in append order and an empty slice for an empty
// store. Append writes exactly one row. DeleteLast removes the most recent
// row and reports false when there was nothing to remove.
type Store interface {
	Load(ctx context.Context) ([]model.Transaction, error)
	Append(ctx context.Context, tx model.Transaction) error
	DeleteLast(ctx context.Context) (bool, error)
	Close() error
}

// Backend names.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and locates a backend.
type Options struct {
	Backend string
	Path    string // csv file or sqlite database, relative to the repo root
	DSN     string // postgres connection string
}

// Default file locations, relative to the repo root.
var (
	DefaultCSVPath    = filepath.Join("ledger", "transactions.csv")
	DefaultSQLitePath = filepath.Join("ledger", "hubtab.db")
)

// Open returns the backend described by opts. Relative paths resolve
// against repoRoot.
func Open(ctx context.Context, repoRoot string, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendCSV, "":
		return csvstore.New(resolve(repoRoot, opts.Path, DefaultCSVPath)), nil
	case BackendSQLite:
		return sqlstore.OpenSQLite(ctx, resolve(repoRoot, opts.Path, DefaultSQLitePath))
	case BackendPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres backend needs a DSN")
		}
		return sqlstore.OpenPostgres(ctx, opts.DSN)
	case BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func resolve(root, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

var (
	_ Store = (*csvstore.Store)(nil)
	_ Store = (*sqlstore.Store)(nil)
	_ Store = (*memstore.Store)(nil)
)
