// Package ledger derives balances and running-balance history from the
// transaction log, and builds new transactions from user actions.
package ledger

import (
	"slices"
	"sort"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Balances maps a participant name to what they owe the lender.
type Balances map[string]int64

// Row is one participant's balance in display order.
type Row struct {
	Name    string
	Balance int64
}

// Entry pairs a transaction with its participant's balance right after it.
type Entry struct {
	model.Transaction
	Balance int64
}

// seed returns a balance map with every registry name at zero.
func seed(participants []string) Balances {
	b := make(Balances, len(participants))
	for _, p := range participants {
		b[p] = 0
	}
	return b
}

// ComputeBalances sums every transaction into per-participant balances.
// Registry names start at zero; names that only appear in the log are added
// on first sight. Traversal order does not matter.
func ComputeBalances(txs []model.Transaction, participants []string) Balances {
	b := seed(participants)
	for _, tx := range txs {
		b[tx.Participant] += tx.Amount
	}
	return b
}

// Total is the sum of all balances, i.e. what the lender has outstanding.
func (b Balances) Total() int64 {
	var total int64
	for _, v := range b {
		total += v
	}
	return total
}

// Rows lists balances with registry names first, in registry order, then
// names known only from history in alphabetical order.
func (b Balances) Rows(participants []string) []Row {
	rows := make([]Row, 0, len(b))
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p] {
			continue
		}
		seen[p] = true
		rows = append(rows, Row{Name: p, Balance: b[p]})
	}

	var extra []string
	for name := range b {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		rows = append(rows, Row{Name: name, Balance: b[name]})
	}
	return rows
}

// History returns every transaction paired with its running balance, most
// recent first. Transactions are applied in ascending timestamp order;
// equal timestamps keep their append order, since the log order is the
// causal order and timestamps only have second precision.
func History(txs []model.Transaction, participants []string) []Entry {
	if len(txs) == 0 {
		return nil
	}

	order := make([]int, len(txs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := txs[order[a]].Timestamp, txs[order[b]].Timestamp
		if ta.Equal(tb) {
			return order[a] < order[b]
		}
		return ta.Before(tb)
	})

	running := seed(participants)
	entries := make([]Entry, 0, len(txs))
	for _, i := range order {
		tx := txs[i]
		running[tx.Participant] += tx.Amount
		entries = append(entries, Entry{Transaction: tx, Balance: running[tx.Participant]})
	}

	slices.Reverse(entries)
	return entries
}
