package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/HaidarGhanem/management-crud/internal/ledger"
)

// Processor runs the take-item use case: validate, deduct stock, append the
// audit entry. The two persisted writes succeed together or the deduction is
// rolled back.
type Processor struct {
	items  *Store
	ledger *ledger.Ledger
}

func NewProcessor(items *Store, lg *ledger.Ledger) *Processor {
	return &Processor{items: items, ledger: lg}
}

// TakeRequest carries take-item input as received from the caller. Amount
// stays a string until validated so a malformed value is reported as invalid
// input rather than a decode failure.
type TakeRequest struct {
	PersonName string
	ItemName   string
	Amount     string
	Date       string
}

type TakeResult struct {
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

// Take validates the request, decrements the item's stock, and appends a
// ledger entry. Validation runs before any store access, so a rejected
// request leaves all state unchanged. If the ledger write fails after the
// deduction persisted, the stock is restocked and the failure is returned;
// success is never reported unless both writes landed.
func (p *Processor) Take(ctx context.Context, req TakeRequest) (TakeResult, error) {
	person := strings.TrimSpace(req.PersonName)
	if person == "" {
		person = "System"
	}
	if strings.TrimSpace(req.ItemName) == "" || strings.TrimSpace(req.Amount) == "" {
		return TakeResult{}, &ValidationError{Reason: "missing required fields"}
	}
	amount, err := strconv.Atoi(strings.TrimSpace(req.Amount))
	if err != nil || amount <= 0 {
		return TakeResult{}, &ValidationError{Reason: "invalid amount"}
	}

	item, err := p.items.Deduct(ctx, req.ItemName, amount)
	if err != nil {
		return TakeResult{}, err
	}

	entry := ledger.Transaction{
		PersonName: person,
		ItemName:   item.Name,
		Amount:     amount,
		Date:       req.Date,
	}
	if err := p.ledger.Append(ctx, entry); err != nil {
		if _, rerr := p.items.Restock(ctx, item.Name, amount); rerr != nil {
			return TakeResult{}, errors.Join(err, fmt.Errorf("restock after failed ledger append: %w", rerr))
		}
		return TakeResult{}, err
	}

	msg := fmt.Sprintf("%s took %d %s(s)", person, amount, item.Name)
	if item.Amount == 0 {
		msg = fmt.Sprintf("%s - %s is now out of stock", msg, item.Name)
	}
	return TakeResult{Message: msg, Remaining: item.Amount}, nil
}
