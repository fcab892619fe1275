// Package render formats balances, the balance chart and history for
// terminals, as plain text or markdown.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/cleared-dev/hubtab/internal/activity"
	"github.com/cleared-dev/hubtab/internal/ledger"
	"github.com/cleared-dev/hubtab/internal/model"
)

// Output formats for --format.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatPretty   = "pretty"
)

// Amount renders n with thousands separators.
func Amount(n int64) string {
	return humanize.Comma(n)
}

// Headline is the "total lent" line shown above the balance table.
func Headline(lender string, total int64) string {
	return fmt.Sprintf("%s has %s outstanding", lender, Amount(total))
}

// BalanceTable writes one line per participant plus the headline.
func BalanceTable(w io.Writer, lender string, rows []ledger.Row, total int64) error {
	if _, err := fmt.Fprintln(w, Headline(lender, total)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "NAME\tBALANCE\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.Name, Amount(r.Balance))
	}
	return tw.Flush()
}

// BarChart draws a horizontal bar per participant, scaled so the largest
// absolute balance spans width cells. Negative balances use a different
// glyph. Nothing is drawn while the lender has nothing outstanding.
func BarChart(w io.Writer, rows []ledger.Row, total int64, width int) error {
	if total == 0 || len(rows) == 0 {
		return nil
	}
	if width <= 0 {
		width = 40
	}

	var maxAbs int64
	nameWidth := 0
	for _, r := range rows {
		if a := abs(r.Balance); a > maxAbs {
			maxAbs = a
		}
		if n := len([]rune(r.Name)); n > nameWidth {
			nameWidth = n
		}
	}

	for _, r := range rows {
		cells := 0
		if maxAbs > 0 {
			cells = int(abs(r.Balance) * int64(width) / maxAbs)
		}
		if cells == 0 && r.Balance != 0 {
			cells = 1
		}
		glyph := "█"
		if r.Balance < 0 {
			glyph = "░"
		}
		pad := strings.Repeat(" ", nameWidth-len([]rune(r.Name)))
		if _, err := fmt.Fprintf(w, "%s%s │%s %s\n", r.Name, pad, strings.Repeat(glyph, cells), Amount(r.Balance)); err != nil {
			return err
		}
	}
	return nil
}

// HistoryTable writes entries most recent first, as ledger.History
// returns them.
func HistoryTable(w io.Writer, entries []ledger.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No transactions yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPARTICIPANT\tTYPE\tAMOUNT\tBALANCE\tMEMO")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			model.FormatTimestamp(e.Timestamp), e.Participant, e.Type,
			Amount(e.Amount), Amount(e.Balance), e.Memo)
	}
	return tw.Flush()
}

// ActivityTable writes activity log entries oldest first.
func ActivityTable(w io.Writer, entries []activity.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No activity yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tROWS\tCOMMIT\tDETAILS")
	for _, e := range entries {
		commit := e.CommitHash
		if commit == "" {
			commit = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			model.FormatTimestamp(e.Timestamp.Local()), e.Action, e.Records, commit, e.Details)
	}
	return tw.Flush()
}

// BalancesMarkdown renders the headline and balance table as markdown.
func BalancesMarkdown(lender string, rows []ledger.Row, total int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", Headline(lender, total))
	b.WriteString("| Name | Balance |\n|:-----|--------:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", escape(r.Name), Amount(r.Balance))
	}
	return b.String()
}

// HistoryMarkdown renders the history table as markdown.
func HistoryMarkdown(entries []ledger.Entry) string {
	var b strings.Builder
	b.WriteString("## History\n\n")
	if len(entries) == 0 {
		b.WriteString("No transactions yet.\n")
		return b.String()
	}
	b.WriteString("| Time | Participant | Type | Amount | Balance | Memo |\n")
	b.WriteString("|:-----|:------------|:-----|-------:|--------:|:-----|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			model.FormatTimestamp(e.Timestamp), escape(e.Participant), e.Type,
			Amount(e.Amount), Amount(e.Balance), escape(e.Memo))
	}
	return b.String()
}

// Markdown writes md either raw or, for FormatPretty, styled for the
// terminal.
func Markdown(w io.Writer, md, format string) error {
	if format == FormatPretty {
		out, err := glamour.Render(md, "auto")
		if err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	switch f {
	case FormatText, FormatMarkdown, FormatPretty:
		return true
	}
	return false
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
