// Package storage provides the persistence drivers backing the item and
// transaction collections. A driver stores one raw JSON document per
// collection; callers own the encoding and hold their own lock across a
// load-mutate-save sequence.
package storage

import (
	"context"
	"fmt"
)

// Collection names used by the service.
const (
	ItemsCollection        = "items"
	TransactionsCollection = "transactions"
)

type Driver interface {
	// Load returns the stored document for the collection, or (nil, nil)
	// when the collection has never been written.
	Load(ctx context.Context, collection string) ([]byte, error)

	// Save atomically replaces the stored document. Concurrent saves on the
	// same collection are serialized; an interrupted save never leaves a
	// partially written document behind.
	Save(ctx context.Context, collection string, data []byte) error
}

// Error reports an I/O failure or malformed stored content. Handlers map it
// to a 500 without exposing the cause.
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
