package inventory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/HaidarGhanem/management-crud/internal/storage"
)

// Store owns the items collection. Every mutating operation holds the store
// lock from load through save, so two concurrent writers can never overwrite
// each other's snapshot.
//
// Item names are not unique: Create never checks for duplicates, lookups
// resolve to the first match, and Delete removes every match. That asymmetry
// is inherited behavior and deliberately kept.
type Store struct {
	mu     sync.Mutex
	driver storage.Driver
}

func NewStore(driver storage.Driver) *Store {
	return &Store{driver: driver}
}

// List returns the items in stored (insertion) order.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	return s.load(ctx)
}

// Create appends a new item with a fresh id. UUIDv7 ids are time-ordered and
// do not collide for items created in rapid succession.
func (s *Store) Create(ctx context.Context, name string, amount int) (Item, error) {
	if strings.TrimSpace(name) == "" {
		return Item{}, &ValidationError{Reason: "name is required"}
	}
	if amount < 0 {
		return Item{}, &ValidationError{Reason: "invalid amount"}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Item{}, err
	}
	item := Item{ID: id.String(), Name: name, Amount: amount}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	items = append(items, item)
	if err := s.save(ctx, items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update merges the patch over the first item whose name matches.
func (s *Store) Update(ctx context.Context, name string, patch ItemPatch) (Item, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Item{}, &ValidationError{Reason: "name is required"}
	}
	if patch.Amount != nil && *patch.Amount < 0 {
		return Item{}, &ValidationError{Reason: "invalid amount"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	for i := range items {
		if items[i].Name != name {
			continue
		}
		if patch.Name != nil {
			items[i].Name = *patch.Name
		}
		if patch.Amount != nil {
			items[i].Amount = *patch.Amount
		}
		if err := s.save(ctx, items); err != nil {
			return Item{}, err
		}
		return items[i], nil
	}
	return Item{}, ErrNotFound
}

// Delete removes every item whose name matches. Deleting a name with no
// matches is a no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.Name != name {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return s.save(ctx, kept)
}

// Deduct decrements the first matching item's stock by amount and persists
// the result. The lock is held across the whole check-decrement-save, so
// concurrent takes cannot oversell.
func (s *Store) Deduct(ctx context.Context, name string, amount int) (Item, error) {
	return s.adjust(ctx, name, -amount)
}

// Restock reverses a Deduct. It exists only as the take processor's
// compensating action when the ledger write fails.
func (s *Store) Restock(ctx context.Context, name string, amount int) (Item, error) {
	return s.adjust(ctx, name, amount)
}

func (s *Store) adjust(ctx context.Context, name string, delta int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	for i := range items {
		if items[i].Name != name {
			continue
		}
		if items[i].Amount+delta < 0 {
			return Item{}, ErrInsufficientStock
		}
		items[i].Amount += delta
		if err := s.save(ctx, items); err != nil {
			return Item{}, err
		}
		return items[i], nil
	}
	return Item{}, ErrNotFound
}

func (s *Store) load(ctx context.Context) ([]Item, error) {
	data, err := s.driver.Load(ctx, storage.ItemsCollection)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []Item{}, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &storage.Error{Op: "load", Collection: storage.ItemsCollection, Err: err}
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, items []Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &storage.Error{Op: "save", Collection: storage.ItemsCollection, Err: err}
	}
	return s.driver.Save(ctx, storage.ItemsCollection, data)
}
