// Package ledger keeps the audit log of take transactions. Entries reference
// items by name at the time of the take; the reference is historical and not
// maintained if the item is later renamed or deleted.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/HaidarGhanem/management-crud/internal/storage"
)

var ErrNotFound = errors.New("transaction not found")

type Transaction struct {
	PersonName string `json:"personName"`
	ItemName   string `json:"itemName"`
	Amount     int    `json:"amount"`
	Date       string `json:"date"`
}

// Patch carries the fields of a partial correction; nil fields are left
// unchanged.
type Patch struct {
	PersonName *string `json:"personName"`
	ItemName   *string `json:"itemName"`
	Amount     *int    `json:"amount"`
	Date       *string `json:"date"`
}

// Ledger owns the transactions collection. Mutations hold the lock from load
// through save, matching the item store's single-writer discipline.
type Ledger struct {
	mu     sync.Mutex
	driver storage.Driver
}

func New(driver storage.Driver) *Ledger {
	return &Ledger{driver: driver}
}

func (l *Ledger) Append(ctx context.Context, tx Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.load(ctx)
	if err != nil {
		return err
	}
	return l.save(ctx, append(txs, tx))
}

// List returns the ledger sorted by date, newest first. Entries whose dates
// are equal or unparseable keep their stored relative order.
func (l *Ledger) List(ctx context.Context) ([]Transaction, error) {
	txs, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return parseDate(txs[i].Date).After(parseDate(txs[j].Date))
	})
	return txs, nil
}

// Stored returns the ledger in insertion order, the order that Update and
// Delete indices address. Callers correcting an entry must index against this
// view, not the sorted one.
func (l *Ledger) Stored(ctx context.Context) ([]Transaction, error) {
	return l.load(ctx)
}

func (l *Ledger) Update(ctx context.Context, index int, patch Patch) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.load(ctx)
	if err != nil {
		return Transaction{}, err
	}
	if index < 0 || index >= len(txs) {
		return Transaction{}, ErrNotFound
	}
	if patch.PersonName != nil {
		txs[index].PersonName = *patch.PersonName
	}
	if patch.ItemName != nil {
		txs[index].ItemName = *patch.ItemName
	}
	if patch.Amount != nil {
		txs[index].Amount = *patch.Amount
	}
	if patch.Date != nil {
		txs[index].Date = *patch.Date
	}
	if err := l.save(ctx, txs); err != nil {
		return Transaction{}, err
	}
	return txs[index], nil
}

func (l *Ledger) Delete(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.load(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(txs) {
		return ErrNotFound
	}
	return l.save(ctx, append(txs[:index], txs[index+1:]...))
}

// parseDate accepts RFC 3339 timestamps and plain dates. Anything else,
// including the empty string, sorts as the zero time, which a descending sort
// places after every dated entry.
func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (l *Ledger) load(ctx context.Context) ([]Transaction, error) {
	data, err := l.driver.Load(ctx, storage.TransactionsCollection)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []Transaction{}, nil
	}
	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, &storage.Error{Op: "load", Collection: storage.TransactionsCollection, Err: err}
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}

func (l *Ledger) save(ctx context.Context, txs []Transaction) error {
	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return &storage.Error{Op: "save", Collection: storage.TransactionsCollection, Err: err}
	}
	return l.driver.Save(ctx, storage.TransactionsCollection, data)
}
