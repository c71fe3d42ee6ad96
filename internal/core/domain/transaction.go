package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement on a wallet.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeSale     TransactionType = "sale"
	TransactionTypeTopup    TransactionType = "topup"
)

// Transaction is an immutable per-wallet ledger line. Amounts are signed and
// expressed in the wallet's currency; the sum of all lines against a wallet
// equals its current balance.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	WalletID    uuid.UUID       `json:"wallet_id"`
	OrderID     *uuid.UUID      `json:"order_id,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
