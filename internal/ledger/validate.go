package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Rule identifies which log invariant a row breaks.
type Rule int

const (
	// RuleSign: borrow and transfer-in rows are positive, repay and
	// transfer-out rows negative, settlement rows non-zero.
	RuleSign Rule = iota + 1
	// RuleParticipant: every row names someone.
	RuleParticipant
	// RuleTransferPair: every transfer-in has a transfer-out of the same
	// size stamped within PairWindow of it, and vice versa.
	RuleTransferPair
)

// PairWindow is how far apart the two halves of a transfer may be stamped.
// Rows written by separate clock reads can straddle a second boundary.
const PairWindow = time.Second

// ValidationError describes a single invariant violation. Row is the
// 1-based position in the log.
type ValidationError struct {
	Rule        Rule
	Row         int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rule %d [row %d]: %s", e.Rule, e.Row, e.Description)
}

// Validate checks a transaction log and returns every violation found, in
// row order. Balances computed from a log with violations are still
// well-defined; the errors point at rows a person probably mistyped.
func Validate(txs []model.Transaction) []ValidationError {
	var errs []ValidationError

	for i, tx := range txs {
		row := i + 1

		if tx.Participant == "" {
			errs = append(errs, ValidationError{
				Rule:        RuleParticipant,
				Row:         row,
				Description: "row has no participant",
			})
		}

		if !signOK(tx) {
			errs = append(errs, ValidationError{
				Rule:        RuleSign,
				Row:         row,
				Description: fmt.Sprintf("%s row has amount %d", tx.Type, tx.Amount),
			})
		}
	}

	for _, i := range unpairedTransfers(txs) {
		tx := txs[i]
		other := model.TypeTransferOut
		if tx.Type == model.TypeTransferOut {
			other = model.TypeTransferIn
		}
		errs = append(errs, ValidationError{
			Rule:        RuleTransferPair,
			Row:         i + 1,
			Description: fmt.Sprintf("%s of %d for %s has no matching %s", tx.Type, tx.Amount, tx.Participant, other),
		})
	}

	sort.SliceStable(errs, func(a, b int) bool { return errs[a].Row < errs[b].Row })
	return errs
}

// unpairedTransfers returns the indexes of transfer rows with no opposite
// half. Each row pairs with the earliest still-open row of the other
// direction whose amount cancels it and whose timestamp is within
// PairWindow.
func unpairedTransfers(txs []model.Transaction) []int {
	var open []int
	for i, tx := range txs {
		if tx.Type != model.TypeTransferIn && tx.Type != model.TypeTransferOut {
			continue
		}
		match := -1
		for k, j := range open {
			o := txs[j]
			if o.Type != tx.Type && o.Amount+tx.Amount == 0 && within(o.Timestamp, tx.Timestamp, PairWindow) {
				match = k
				break
			}
		}
		if match >= 0 {
			open = append(open[:match], open[match+1:]...)
			continue
		}
		open = append(open, i)
	}
	return open
}

func within(a, b time.Time, d time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d
}

func signOK(tx model.Transaction) bool {
	switch tx.Type {
	case model.TypeBorrow, model.TypeTransferIn:
		return tx.Amount > 0
	case model.TypeRepay, model.TypeTransferOut:
		return tx.Amount < 0
	case model.TypeSettlement:
		return tx.Amount != 0
	}
	return true
}
