// Package events publishes ledger changes to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Kind names what happened to the log.
type Kind string

const (
	KindAppended Kind = "appended"
	KindUndone   Kind = "undone"
)

// Event describes one ledger change.
type Event struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Action       string     `json:"action"`
	At           time.Time  `json:"at"`
	Transactions []EventRow `json:"transactions,omitempty"`
}

// EventRow is the wire form of a transaction.
type EventRow struct {
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Amount      int64  `json:"amount"`
	Memo        string `json:"memo,omitempty"`
}

// NewEvent stamps a fresh event ID.
func NewEvent(kind Kind, action string, at time.Time, txs []model.Transaction) Event {
	rows := make([]EventRow, len(txs))
	for i, tx := range txs {
		rows[i] = EventRow{
			Timestamp:   model.FormatTimestamp(tx.Timestamp),
			Type:        string(tx.Type),
			Participant: tx.Participant,
			Amount:      tx.Amount,
			Memo:        tx.Memo,
		}
	}
	return Event{
		ID:           uuid.NewString(),
		Kind:         kind,
		Action:       action,
		At:           at.UTC(),
		Transactions: rows,
	}
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
