package inventory

import "errors"

var (
	ErrNotFound          = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient amount")
)

// ValidationError reports malformed caller input; handlers map it to a 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Item is a named, quantity-tracked inventory record. Amount never goes
// negative: the only transitions are an explicit update and a bounded take.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// ItemPatch carries the fields of a partial update; nil fields are left
// unchanged.
type ItemPatch struct {
	Name   *string `json:"name"`
	Amount *int    `json:"amount"`
}
