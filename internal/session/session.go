// Package session runs ledger actions against a store: build the rows,
// append them, reload the log and recompute balances and history.
//
// Sessions in different processes are not coordinated. Each computes from
// its own last-loaded snapshot, so two simultaneous settlements or borrows
// against the same store can double-count.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/hubtab/internal/activity"
	"github.com/cleared-dev/hubtab/internal/events"
	"github.com/cleared-dev/hubtab/internal/gitops"
	"github.com/cleared-dev/hubtab/internal/ledger"
	"github.com/cleared-dev/hubtab/internal/model"
	"github.com/cleared-dev/hubtab/internal/participants"
	"github.com/cleared-dev/hubtab/internal/store"
)

// ErrHalted wraps the store failure that stopped a session. Once halted, a
// session refuses further work rather than operate on stale data.
var ErrHalted = errors.New("session halted")

// CommitOptions enables committing tracked files after each change.
type CommitOptions struct {
	AuthorName  string
	AuthorEmail string
	Paths       []string // relative to Options.Root
}

// Options configures a Session. Store and Registry are required.
type Options struct {
	Store     store.Store
	Registry  *participants.Registry
	Lender    string
	Builder   *ledger.Builder
	Publisher events.Publisher
	Logger    *slog.Logger

	Root     string         // repo root for activity log and git
	Activity bool           // append to logs/activity.csv
	Commit   *CommitOptions // nil disables git commits
}

// Session is one user's view of the ledger.
type Session struct {
	mu        sync.Mutex
	store     store.Store
	registry  *participants.Registry
	lender    string
	builder   *ledger.Builder
	publisher events.Publisher
	logger    *slog.Logger

	root     string
	activity bool
	commit   *CommitOptions

	halted error
}

// New creates a Session.
func New(opts Options) *Session {
	s := &Session{
		store:     opts.Store,
		registry:  opts.Registry,
		lender:    opts.Lender,
		builder:   opts.Builder,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		root:      opts.Root,
		activity:  opts.Activity,
		commit:    opts.Commit,
	}
	if s.registry == nil {
		s.registry = participants.New()
	}
	if s.lender == "" {
		s.lender = participants.DefaultLender
	}
	if s.builder == nil {
		s.builder = ledger.NewBuilder()
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Snapshot is the derived view of the log at one point in time.
type Snapshot struct {
	Lender       string
	Participants []string
	Transactions []model.Transaction
	Balances     ledger.Balances
	Rows         []ledger.Row
	History      []ledger.Entry
	Total        int64
}

// Result reports what an action appended. Records == 0 means the action's
// preconditions were not met and nothing was written.
type Result struct {
	Records  int
	Snapshot Snapshot
}

// Snapshot reloads the log and recomputes every view.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Borrow charges each target, either the full amount or an even share.
func (s *Session) Borrow(ctx context.Context, p ledger.BorrowParams) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range p.Targets {
		if err := s.known(name); err != nil {
			return Result{}, err
		}
	}
	txs := s.builder.Borrow(p)
	names := make([]string, len(txs))
	for i, tx := range txs {
		names[i] = tx.Participant
	}
	details := fmt.Sprintf("%s %d for %s", p.Mode, p.Amount, strings.Join(names, ", "))
	return s.apply(ctx, "borrow", details, txs)
}

// Repay records a repayment from payer.
func (s *Session) Repay(ctx context.Context, payer string, amount int64, memo string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.known(payer); err != nil {
		return Result{}, err
	}
	txs := s.builder.Repay(payer, amount, memo)
	return s.apply(ctx, "repay", fmt.Sprintf("%s repaid %d", payer, amount), txs)
}

// Transfer moves debt from p.Reducer to p.Taker.
func (s *Session) Transfer(ctx context.Context, p ledger.TransferParams) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{p.Taker, p.Reducer} {
		if err := s.known(name); err != nil {
			return Result{}, err
		}
	}
	txs := s.builder.Transfer(p)
	details := fmt.Sprintf("%d from %s to %s", p.Amount, p.Reducer, p.Taker)
	return s.apply(ctx, "transfer", details, txs)
}

// Settle zeroes every non-zero balance. Balances come from a fresh reload
// of the store, not from any earlier snapshot.
func (s *Session) Settle(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return Result{}, err
	}
	txs := s.builder.Settle(snap.Balances, snap.Participants)
	if len(txs) == 0 {
		return Result{Snapshot: snap}, nil
	}
	return s.apply(ctx, "settle", fmt.Sprintf("settled %d participants", len(txs)), txs)
}

// Import appends externally produced rows in the given order.
func (s *Session) Import(ctx context.Context, source string, txs []model.Transaction) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, "import", "imported from "+source, txs)
}

// Undo deletes the most recently appended row. It reports false when the
// log was already empty.
func (s *Session) Undo(ctx context.Context) (bool, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted != nil {
		return false, Snapshot{}, s.halted
	}
	ok, err := s.store.DeleteLast(ctx)
	if err != nil {
		return false, Snapshot{}, s.halt(fmt.Errorf("deleting last row: %w", err))
	}
	if ok {
		s.logger.Info("removed last transaction")
		s.afterChange(ctx, events.KindUndone, "undo", "removed last row", nil, 1)
	}
	snap, err := s.load(ctx)
	return ok, snap, err
}

// Participants returns the current registry names.
func (s *Session) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Names()
}

// AddParticipant registers a new name for this session.
func (s *Session) AddParticipant(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Add(name)
}

// RenameParticipant renames a registry entry. Stored rows keep the old
// name, which then shows up as a historical participant.
func (s *Session) RenameParticipant(old, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Rename(old, newName)
}

// Lender returns the hub's display name.
func (s *Session) Lender() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lender
}

// SetLender changes the hub's display name.
func (s *Session) SetLender(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return participants.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lender = name
	return nil
}

// Err returns the error that halted the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Close releases the store and publisher.
func (s *Session) Close() error {
	return errors.Join(s.store.Close(), s.publisher.Close())
}

func (s *Session) known(name string) error {
	if !s.registry.Contains(name) {
		return fmt.Errorf("%w: %q", participants.ErrUnknown, name)
	}
	return nil
}

func (s *Session) halt(err error) error {
	s.halted = fmt.Errorf("%w: %w", ErrHalted, err)
	s.logger.Error("store unavailable, halting session", "err", err)
	return s.halted
}

func (s *Session) load(ctx context.Context) (Snapshot, error) {
	if s.halted != nil {
		return Snapshot{}, s.halted
	}
	txs, err := s.store.Load(ctx)
	if err != nil {
		return Snapshot{}, s.halt(fmt.Errorf("loading transactions: %w", err))
	}

	names := s.registry.Names()
	balances := ledger.ComputeBalances(txs, names)
	return Snapshot{
		Lender:       s.lender,
		Participants: names,
		Transactions: txs,
		Balances:     balances,
		Rows:         balances.Rows(names),
		History:      ledger.History(txs, names),
		Total:        balances.Total(),
	}, nil
}

func (s *Session) apply(ctx context.Context, action, details string, txs []model.Transaction) (Result, error) {
	if s.halted != nil {
		return Result{}, s.halted
	}
	if len(txs) == 0 {
		s.logger.Debug("nothing to append", "action", action)
		snap, err := s.load(ctx)
		return Result{Snapshot: snap}, err
	}

	for i, tx := range txs {
		if err := s.store.Append(ctx, tx); err != nil {
			return Result{Records: i}, s.halt(fmt.Errorf("appending %s row %d of %d: %w", action, i+1, len(txs), err))
		}
	}
	s.logger.Info("appended transactions", "action", action, "records", len(txs))
	s.afterChange(ctx, events.KindAppended, action, details, txs, len(txs))

	snap, err := s.load(ctx)
	return Result{Records: len(txs), Snapshot: snap}, err
}

// afterChange runs the side channels. Their failures are logged only; the
// store already holds the change.
func (s *Session) afterChange(ctx context.Context, kind events.Kind, action, details string, txs []model.Transaction, records int) {
	now := time.Now()
	if err := s.publisher.Publish(ctx, events.NewEvent(kind, action, now, txs)); err != nil {
		s.logger.Warn("publishing event failed", "action", action, "err", err)
	}

	var hash string
	if s.commit != nil && s.root != "" && gitops.IsRepo(s.root) {
		msg := fmt.Sprintf("%s: %s", action, details)
		h, err := gitops.CommitPaths(s.root, msg, s.commit.AuthorName, s.commit.AuthorEmail, s.commit.Paths...)
		switch {
		case errors.Is(err, gitops.ErrNothingToCommit):
		case err != nil:
			s.logger.Warn("git commit failed", "action", action, "err", err)
		default:
			hash = h
			s.logger.Debug("committed ledger", "hash", h)
		}
	}

	if s.activity && s.root != "" {
		entry := activity.Entry{
			Timestamp:  now,
			Action:     action,
			Details:    details,
			Records:    records,
			CommitHash: hash,
		}
		if err := activity.Open(s.root).Append(entry); err != nil {
			s.logger.Warn("writing activity log failed", "action", action, "err", err)
		}
	}
}
