package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds one user's funds in a single currency. The balance is only
// mutated inside a ledger transaction and never goes negative after a
// committed settlement.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  Currency        `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanCover reports whether the wallet balance covers the required amount.
// The amount must already be expressed in the wallet's own currency;
// conversion happens strictly before this check.
func (w *Wallet) CanCover(required decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(required)
}
