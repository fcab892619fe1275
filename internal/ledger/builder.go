package ledger

import (
	"fmt"
	"time"

	"github.com/cleared-dev/hubtab/internal/model"
)

// SplitMode selects how a borrow amount is spread over its targets.
type SplitMode int

const (
	// SplitPerPerson charges every target the full amount.
	SplitPerPerson SplitMode = iota
	// SplitEven divides the amount by the number of targets, truncating.
	SplitEven
)

// ParseSplitMode maps "per-person" and "even" to a SplitMode.
func ParseSplitMode(s string) (SplitMode, error) {
	switch s {
	case "per-person", "each", "":
		return SplitPerPerson, nil
	case "even", "split":
		return SplitEven, nil
	}
	return 0, fmt.Errorf("unknown split mode %q (want per-person or even)", s)
}

func (m SplitMode) String() string {
	if m == SplitEven {
		return "even"
	}
	return "per-person"
}

// SettlementMemo is written on every settlement row.
const SettlementMemo = "bulk settlement (history kept)"

// Builder turns user actions into transactions. It performs no I/O.
// A nil or empty result means the action's preconditions were not met.
type Builder struct {
	Now func() time.Time
}

// NewBuilder returns a Builder stamped with the wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now().Truncate(time.Second)
	}
	return b.Now().Truncate(time.Second)
}

// BorrowParams describes a borrow, optionally split across several people.
type BorrowParams struct {
	Targets []string
	Amount  int64
	Mode    SplitMode
	Memo    string
}

// Borrow produces one borrow row per distinct target, in first-seen order.
func (b *Builder) Borrow(p BorrowParams) []model.Transaction {
	targets := distinct(p.Targets)
	if len(targets) == 0 || p.Amount <= 0 {
		return nil
	}
	each := p.Amount
	if p.Mode == SplitEven {
		each = p.Amount / int64(len(targets))
	}
	if each <= 0 {
		return nil
	}

	ts := b.now()
	txs := make([]model.Transaction, 0, len(targets))
	for _, target := range targets {
		txs = append(txs, model.Transaction{
			Timestamp:   ts,
			Type:        model.TypeBorrow,
			Participant: target,
			Amount:      each,
			Memo:        p.Memo,
		})
	}
	return txs
}

// Repay produces a single negative repay row.
func (b *Builder) Repay(payer string, amount int64, memo string) []model.Transaction {
	if payer == "" || amount <= 0 {
		return nil
	}
	return []model.Transaction{{
		Timestamp:   b.now(),
		Type:        model.TypeRepay,
		Participant: payer,
		Amount:      -amount,
		Memo:        memo,
	}}
}

// TransferParams moves debt from Reducer to Taker.
type TransferParams struct {
	Taker   string // debt increases
	Reducer string // debt decreases
	Amount  int64
	Reason  string
}

// Transfer produces a transfer-in row for the taker and a mirrored
// transfer-out row for the reducer, each memo naming the other party.
func (b *Builder) Transfer(p TransferParams) []model.Transaction {
	if p.Taker == "" || p.Reducer == "" || p.Taker == p.Reducer || p.Amount <= 0 {
		return nil
	}
	suffix := ""
	if p.Reason != "" {
		suffix = " (" + p.Reason + ")"
	}
	ts := b.now()
	return []model.Transaction{
		{
			Timestamp:   ts,
			Type:        model.TypeTransferIn,
			Participant: p.Taker,
			Amount:      p.Amount,
			Memo:        "paid to " + p.Reducer + suffix,
		},
		{
			Timestamp:   ts,
			Type:        model.TypeTransferOut,
			Participant: p.Reducer,
			Amount:      -p.Amount,
			Memo:        "received from " + p.Taker + suffix,
		},
	}
}

// Settle produces one settlement row per non-zero balance, each bringing
// that participant back to exactly zero. Rows follow Balances.Rows order.
func (b *Builder) Settle(balances Balances, participants []string) []model.Transaction {
	ts := b.now()
	var txs []model.Transaction
	for _, row := range balances.Rows(participants) {
		if row.Balance == 0 {
			continue
		}
		txs = append(txs, model.Transaction{
			Timestamp:   ts,
			Type:        model.TypeSettlement,
			Participant: row.Name,
			Amount:      -row.Balance,
			Memo:        SettlementMemo,
		})
	}
	return txs
}

func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
