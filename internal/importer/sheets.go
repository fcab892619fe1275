package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/hubtab/internal/model"
)

// SheetsParser reads a spreadsheet CSV export. Columns are located by
// header name, Japanese or English, so extra or reordered columns are fine.
type SheetsParser struct{}

var sheetsHeaders = map[string][]string{
	"timestamp":   {"日時", "timestamp", "date"},
	"type":        {"タイプ", "type"},
	"participant": {"対象者", "participant", "name"},
	"amount":      {"金額", "amount"},
	"memo":        {"メモ", "memo", "note"},
}

// Spreadsheets re-render dates depending on locale.
var sheetsTimeLayouts = []string{
	model.TimestampFormat,
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/1/2 15:04",
}

// Format returns the parser name.
func (p *SheetsParser) Format() string { return "sheets" }

// Detect accepts any header naming the required columns.
func (p *SheetsParser) Detect(header []string) bool {
	_, err := mapColumns(header)
	return err == nil
}

// Parse reads the header, maps columns and converts each row.
func (p *SheetsParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sheets CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, rec := range records[1:] {
		if blankRow(rec) {
			continue
		}
		tx, err := parseSheetsRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(sheetsHeaders))
	for i, h := range header {
		h = normalizeHeader(h)
		for field, names := range sheetsHeaders {
			for _, n := range names {
				if h == n {
					if _, dup := cols[field]; !dup {
						cols[field] = i
					}
				}
			}
		}
	}
	for _, required := range []string{"timestamp", "type", "participant", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column in header %v", required, header)
		}
	}
	return cols, nil
}

func parseSheetsRow(rec []string, cols map[string]int) (model.Transaction, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ts, err := parseSheetsTime(get("timestamp"))
	if err != nil {
		return model.Transaction{}, err
	}
	typ, err := model.ParseTxType(get("type"))
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := model.ParseAmount(get("amount"))
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		Timestamp:   ts,
		Type:        typ,
		Participant: get("participant"),
		Amount:      amount,
		Memo:        get("memo"),
	}, nil
}

func parseSheetsTime(s string) (time.Time, error) {
	for _, layout := range sheetsTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func blankRow(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
