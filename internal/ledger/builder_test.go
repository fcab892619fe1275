package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/hubtab/internal/model"
)

func fixedBuilder() *Builder {
	ts := time.Date(2025, 2, 1, 12, 30, 15, 999, time.UTC)
	return &Builder{Now: func() time.Time { return ts }}
}

func TestBorrow_PerPerson(t *testing.T) {
	txs := fixedBuilder().Borrow(BorrowParams{
		Targets: []string{"X", "Y"},
		Amount:  1200,
		Mode:    SplitPerPerson,
		Memo:    "dinner",
	})
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, model.TypeBorrow, tx.Type)
		assert.Equal(t, int64(1200), tx.Amount)
		assert.Equal(t, "dinner", tx.Memo)
		assert.Zero(t, tx.Timestamp.Nanosecond(), "timestamp truncated to the second")
	}
	assert.Equal(t, "X", txs[0].Participant)
	assert.Equal(t, "Y", txs[1].Participant)
}

func TestBorrow_EvenTruncates(t *testing.T) {
	targets := []string{"X", "Y", "Z"}
	txs := fixedBuilder().Borrow(BorrowParams{Targets: targets, Amount: 1000, Mode: SplitEven})
	require.Len(t, txs, 3)

	before := ComputeBalances(nil, targets)
	after := ComputeBalances(txs, targets)
	for _, name := range targets {
		assert.Equal(t, before[name]+333, after[name])
	}
	assert.Equal(t, int64(999), after.Total(), "truncation leaves the remainder unassigned")
}

func TestBorrow_Preconditions(t *testing.T) {
	b := fixedBuilder()
	assert.Empty(t, b.Borrow(BorrowParams{Targets: nil, Amount: 100}))
	assert.Empty(t, b.Borrow(BorrowParams{Targets: []string{"X"}, Amount: 0}))
	assert.Empty(t, b.Borrow(BorrowParams{Targets: []string{"X"}, Amount: -5}))
	assert.Empty(t, b.Borrow(BorrowParams{Targets: []string{"X", "Y", "Z"}, Amount: 2, Mode: SplitEven}))
}

func TestRepay(t *testing.T) {
	txs := fixedBuilder().Repay("X", 400, "cash")
	require.Len(t, txs, 1)
	assert.Equal(t, model.TypeRepay, txs[0].Type)
	assert.Equal(t, "X", txs[0].Participant)
	assert.Equal(t, int64(-400), txs[0].Amount)
	assert.Equal(t, "cash", txs[0].Memo)

	assert.Empty(t, fixedBuilder().Repay("X", 0, ""))
	assert.Empty(t, fixedBuilder().Repay("", 10, ""))
}

func TestTransfer_Symmetry(t *testing.T) {
	participants := []string{"X", "Y"}
	start := []model.Transaction{
		{Participant: "X", Amount: 500},
		{Participant: "Y", Amount: 500},
	}
	txs := fixedBuilder().Transfer(TransferParams{Taker: "X", Reducer: "Y", Amount: 200, Reason: "lunch"})
	require.Len(t, txs, 2)

	assert.Equal(t, model.TypeTransferIn, txs[0].Type)
	assert.Equal(t, "X", txs[0].Participant)
	assert.Equal(t, "paid to Y (lunch)", txs[0].Memo)
	assert.Equal(t, model.TypeTransferOut, txs[1].Type)
	assert.Equal(t, "Y", txs[1].Participant)
	assert.Equal(t, "received from X (lunch)", txs[1].Memo)
	assert.Equal(t, -txs[0].Amount, txs[1].Amount)
	assert.True(t, txs[0].Timestamp.Equal(txs[1].Timestamp))

	before := ComputeBalances(start, participants)
	after := ComputeBalances(append(start, txs...), participants)
	assert.Equal(t, before["X"]+200, after["X"])
	assert.Equal(t, before["Y"]-200, after["Y"])
}

func TestTransfer_NoReason(t *testing.T) {
	txs := fixedBuilder().Transfer(TransferParams{Taker: "X", Reducer: "Y", Amount: 1})
	require.Len(t, txs, 2)
	assert.Equal(t, "paid to Y", txs[0].Memo)
	assert.Equal(t, "received from X", txs[1].Memo)
}

func TestTransfer_Preconditions(t *testing.T) {
	b := fixedBuilder()
	assert.Empty(t, b.Transfer(TransferParams{Taker: "X", Reducer: "X", Amount: 100}))
	assert.Empty(t, b.Transfer(TransferParams{Taker: "X", Reducer: "Y", Amount: 0}))
	assert.Empty(t, b.Transfer(TransferParams{Taker: "", Reducer: "Y", Amount: 10}))
}

func TestSettle_Scenario(t *testing.T) {
	participants := []string{"X", "Y"}
	balances := Balances{"X": 600, "Y": 1000}

	txs := fixedBuilder().Settle(balances, participants)
	require.Len(t, txs, 2)
	assert.Equal(t, "X", txs[0].Participant)
	assert.Equal(t, int64(-600), txs[0].Amount)
	assert.Equal(t, "Y", txs[1].Participant)
	assert.Equal(t, int64(-1000), txs[1].Amount)
	for _, tx := range txs {
		assert.Equal(t, model.TypeSettlement, tx.Type)
		assert.Equal(t, SettlementMemo, tx.Memo)
	}

	log := []model.Transaction{
		{Participant: "X", Amount: 600},
		{Participant: "Y", Amount: 1000},
	}
	after := ComputeBalances(append(log, txs...), participants)
	assert.Equal(t, Balances{"X": 0, "Y": 0}, after)
}

func TestSettle_Idempotent(t *testing.T) {
	participants := []string{"X", "Y"}
	log := []model.Transaction{{Participant: "X", Amount: 250}}
	b := fixedBuilder()

	first := b.Settle(ComputeBalances(log, participants), participants)
	require.Len(t, first, 1)

	log = append(log, first...)
	second := b.Settle(ComputeBalances(log, participants), participants)
	assert.Empty(t, second)
}

func TestSettle_IncludesHistoricalNames(t *testing.T) {
	txs := fixedBuilder().Settle(Balances{"X": 0, "Old": -75}, []string{"X"})
	require.Len(t, txs, 1)
	assert.Equal(t, "Old", txs[0].Participant)
	assert.Equal(t, int64(75), txs[0].Amount)
}

func TestParseSplitMode(t *testing.T) {
	m, err := ParseSplitMode("even")
	require.NoError(t, err)
	assert.Equal(t, SplitEven, m)

	m, err = ParseSplitMode("per-person")
	require.NoError(t, err)
	assert.Equal(t, SplitPerPerson, m)
	assert.Equal(t, "per-person", m.String())

	_, err = ParseSplitMode("random")
	assert.Error(t, err)
}

func TestBorrow_DuplicateTargetsChargedOnce(t *testing.T) {
	txs := fixedBuilder().Borrow(BorrowParams{
		Targets: []string{"X", "X", "Y"},
		Amount:  900,
		Mode:    SplitEven,
	})
	require.Len(t, txs, 2)
	assert.Equal(t, "X", txs[0].Participant)
	assert.Equal(t, int64(450), txs[0].Amount)
	assert.Equal(t, "Y", txs[1].Participant)
	assert.Equal(t, int64(450), txs[1].Amount)

	txs = fixedBuilder().Borrow(BorrowParams{Targets: []string{"Y", "X", "Y"}, Amount: 100})
	require.Len(t, txs, 2)
	assert.Equal(t, []string{"Y", "X"}, []string{txs[0].Participant, txs[1].Participant})
	assert.Equal(t, int64(100), txs[1].Amount)
}
