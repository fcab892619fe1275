// Package csvstore keeps the transaction log in a single CSV file.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Header is the first line of every transactions CSV.
const Header = "timestamp,type,participant,amount,memo"

const (
	numFields      = 5
	colTimestamp   = 0
	colType        = 1
	colParticipant = 2
	colAmount      = 3
	colMemo        = 4
)

// ReadRows reads all transactions from a CSV reader. The header row is
// skipped; an empty input yields no rows.
func ReadRows(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	txs := make([]model.Transaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		tx, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteRows writes a header followed by all transactions.
func WriteRows(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalRow(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendRows writes transactions without a header.
func AppendRows(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	for i, tx := range txs {
		if err := cw.Write(MarshalRow(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a transaction to CSV fields in log column order.
func MarshalRow(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colTimestamp] = model.FormatTimestamp(tx.Timestamp)
	row[colType] = string(tx.Type)
	row[colParticipant] = tx.Participant
	row[colAmount] = strconv.FormatInt(tx.Amount, 10)
	row[colMemo] = tx.Memo
	return row
}

// UnmarshalRow converts CSV fields to a transaction.
func UnmarshalRow(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := model.ParseTimestamp(record[colTimestamp])
	if err != nil {
		return model.Transaction{}, err
	}
	typ, err := model.ParseTxType(record[colType])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := model.ParseAmount(record[colAmount])
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		Timestamp:   ts,
		Type:        typ,
		Participant: record[colParticipant],
		Amount:      amount,
		Memo:        record[colMemo],
	}, nil
}
