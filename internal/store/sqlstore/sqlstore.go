// Package sqlstore keeps the transaction log in a SQL table. SQLite and
// PostgreSQL are supported; rows are ordered by a serial id.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/cleared-dev/hubtab/internal/model"
)

// Dialect captures the few statements that differ between engines.
type Dialect struct {
	Name       string
	Driver     string
	Schema     string
	positional bool // $1, $2 ... instead of ?
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		Schema: `CREATE TABLE IF NOT EXISTS transactions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			ts          TEXT NOT NULL,
			type        TEXT NOT NULL,
			participant TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			memo        TEXT NOT NULL DEFAULT ''
		)`,
	}
	Postgres = Dialect{
		Name:   "postgres",
		Driver: "postgres",
		Schema: `CREATE TABLE IF NOT EXISTS transactions (
			id          BIGSERIAL PRIMARY KEY,
			ts          TEXT NOT NULL,
			type        TEXT NOT NULL,
			participant TEXT NOT NULL,
			amount      BIGINT NOT NULL,
			memo        TEXT NOT NULL DEFAULT ''
		)`,
		positional: true,
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store is a SQL-backed transaction log.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	db, err := sql.Open(SQLite.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return New(ctx, db, SQLite)
}

// OpenPostgres connects to a PostgreSQL database.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open(Postgres.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return New(ctx, db, Postgres)
}

// New wraps an open database, verifying the connection and creating the
// table when missing. The Store takes ownership of db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", dialect.Name, err)
	}
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

// Load returns every row ordered by id.
func (s *Store) Load(ctx context.Context) ([]model.Transaction, error) {
	const query = `SELECT ts, type, participant, amount, memo FROM transactions ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var ts, typ string
		var tx model.Transaction
		if err := rows.Scan(&ts, &typ, &tx.Participant, &tx.Amount, &tx.Memo); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if tx.Timestamp, err = model.ParseTimestamp(ts); err != nil {
			return nil, err
		}
		if tx.Type, err = model.ParseTxType(typ); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return txs, nil
}

// Append inserts one row.
func (s *Store) Append(ctx context.Context, tx model.Transaction) error {
	query := s.dialect.rebind(`INSERT INTO transactions (ts, type, participant, amount, memo) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		model.FormatTimestamp(tx.Timestamp), string(tx.Type), tx.Participant, tx.Amount, tx.Memo)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// DeleteLast removes the row with the highest id.
func (s *Store) DeleteLast(ctx context.Context) (bool, error) {
	const query = `DELETE FROM transactions WHERE id = (SELECT MAX(id) FROM transactions)`

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("deleting last transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting last transaction: %w", err)
	}
	return n > 0, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
