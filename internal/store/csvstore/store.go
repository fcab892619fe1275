package csvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Store appends rows to one CSV file, writing the header on first use.
type Store struct {
	path string
}

// New returns a Store backed by path. The file is created on first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads every row. A missing file is an empty log.
func (s *Store) Load(_ context.Context) ([]model.Transaction, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", s.path, err)
	}
	defer f.Close()

	txs, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", s.path, err)
	}
	return txs, nil
}

// Append writes one row at the end of the file.
func (s *Store) Append(_ context.Context, tx model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if info, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		isNew = true
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendRows(f, []model.Transaction{tx}); err != nil {
		return fmt.Errorf("appending row: %w", err)
	}
	return nil
}

// DeleteLast rewrites the file without its final row. A header-only or
// missing file is left alone.
func (s *Store) DeleteLast(ctx context.Context) (bool, error) {
	txs, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(txs) == 0 {
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".transactions-*.csv")
	if err != nil {
		return false, fmt.Errorf("creating temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return false, fmt.Errorf("chmod temp ledger: %w", err)
	}

	if err := WriteRows(tmp, txs[:len(txs)-1]); err != nil {
		tmp.Close()
		return false, fmt.Errorf("rewriting ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return false, fmt.Errorf("replacing ledger: %w", err)
	}
	return true, nil
}

// Close is a no-op; the file is opened per call.
func (s *Store) Close() error { return nil }
