package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampFormat is the string form of Transaction.Timestamp in every store.
const TimestampFormat = "2006-01-02 15:04:05"

// TxType tags the user action a transaction came from.
type TxType string

const (
	TypeBorrow      TxType = "borrow"
	TypeRepay       TxType = "repay"
	TypeTransferIn  TxType = "transfer-in"
	TypeTransferOut TxType = "transfer-out"
	TypeSettlement  TxType = "settlement"
)

// legacyTypes maps the tags written by the spreadsheet front end.
var legacyTypes = map[string]TxType{
	"借入":      TypeBorrow,
	"返済":      TypeRepay,
	"移動(+)":   TypeTransferIn,
	"移動(-)":   TypeTransferOut,
	"清算/リセット": TypeSettlement,
}

// ParseTxType accepts canonical tags and the spreadsheet's legacy tags.
func ParseTxType(s string) (TxType, error) {
	s = strings.TrimSpace(s)
	switch t := TxType(strings.ToLower(s)); t {
	case TypeBorrow, TypeRepay, TypeTransferIn, TypeTransferOut, TypeSettlement:
		return t, nil
	}
	if t, ok := legacyTypes[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is one row of the append-only log. Its identity is its
// position in the log; rows are never edited.
type Transaction struct {
	Timestamp   time.Time
	Type        TxType
	Participant string // free text, may not be in the current registry
	Amount      int64  // positive = participant owes the lender more
	Memo        string
}

// FormatTimestamp renders t in TimestampFormat.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// ParseTimestamp parses a TimestampFormat string in local time, the zone
// the builder stamps rows in.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampFormat, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// ParseAmount parses a whole-number amount. Thousands separators and a zero
// fractional part ("1000.0", as spreadsheets sometimes render numbers) are
// accepted; any other fraction is rejected.
func ParseAmount(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("amount %q is not a whole number", s)
	}
	if !d.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return d.IntPart(), nil
}
