package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/hubtab/internal/activity"
	"github.com/cleared-dev/hubtab/internal/ledger"
	"github.com/cleared-dev/hubtab/internal/model"
)

func rows() []ledger.Row {
	return []ledger.Row{
		{Name: "X", Balance: 600},
		{Name: "Yuki", Balance: 1200},
		{Name: "Old", Balance: -300},
	}
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "1,234,567", Amount(1234567))
	assert.Equal(t, "-400", Amount(-400))
	assert.Equal(t, "0", Amount(0))
}

func TestBalanceTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BalanceTable(&buf, "A", rows(), 1500))
	out := buf.String()

	assert.Contains(t, out, "A has 1,500 outstanding")
	assert.Contains(t, out, "Yuki")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "-300")
}

func TestBarChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BarChart(&buf, rows(), 1500, 12))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, 6, strings.Count(lines[0], "█"), "600 of 1200 is half width")
	assert.Equal(t, 12, strings.Count(lines[1], "█"))
	assert.Equal(t, 3, strings.Count(lines[2], "░"))
	assert.True(t, strings.HasPrefix(lines[0], "X    │"), "names padded to the widest")
}

func TestBarChart_SuppressedWhenNothingOutstanding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BarChart(&buf, []ledger.Row{{Name: "X"}, {Name: "Y"}}, 0, 10))
	assert.Empty(t, buf.String())
}

func TestBarChart_TinyBalanceStillVisible(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BarChart(&buf, []ledger.Row{{Name: "X", Balance: 1}, {Name: "Y", Balance: 10000}}, 10001, 10))
	assert.Contains(t, strings.Split(buf.String(), "\n")[0], "█")
}

func entries() []ledger.Entry {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return []ledger.Entry{
		{Transaction: model.Transaction{Timestamp: ts, Type: model.TypeRepay, Participant: "X", Amount: -400, Memo: "cash | coins"}, Balance: 600},
		{Transaction: model.Transaction{Timestamp: ts, Type: model.TypeBorrow, Participant: "X", Amount: 1000}, Balance: 1000},
	}
}

func TestHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HistoryTable(&buf, entries()))
	out := buf.String()
	assert.Contains(t, out, "2025-01-02 03:04:05")
	assert.Contains(t, out, "repay")
	assert.Contains(t, out, "1,000")
	assert.Less(t, strings.Index(out, "repay"), strings.Index(out, "borrow"), "order preserved")

	buf.Reset()
	require.NoError(t, HistoryTable(&buf, nil))
	assert.Contains(t, buf.String(), "No transactions yet.")
}

func TestMarkdown(t *testing.T) {
	md := BalancesMarkdown("A", rows(), 1500)
	assert.Contains(t, md, "| Yuki | 1,200 |")

	md = HistoryMarkdown(entries())
	assert.Contains(t, md, `cash \| coins`)

	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, md, FormatMarkdown))
	assert.Equal(t, md, buf.String())

	buf.Reset()
	require.NoError(t, Markdown(&buf, md, FormatPretty))
	assert.Contains(t, buf.String(), "History")
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("text"))
	assert.True(t, ValidFormat("pretty"))
	assert.False(t, ValidFormat("html"))
}

func TestActivityTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ActivityTable(&buf, nil))
	assert.Equal(t, "No activity yet.\n", buf.String())

	buf.Reset()
	entries := []activity.Entry{
		{Timestamp: time.Now(), Action: "borrow", Details: "even 3000 for X, Y", Records: 2, CommitHash: "abc1234"},
		{Timestamp: time.Now(), Action: "undo", Details: "removed last row", Records: 1},
	}
	require.NoError(t, ActivityTable(&buf, entries))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "COMMIT")
	assert.Contains(t, lines[1], "abc1234")
	assert.Regexp(t, `undo\s+1\s+-\s+removed last row`, lines[2])
}
