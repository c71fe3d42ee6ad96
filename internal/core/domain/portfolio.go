package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortfolioEntry records an item a user holds, written by the effects
// dispatcher after settlement.
type PortfolioEntry struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	ListingID     uuid.UUID       `json:"listing_id"`
	Title         string          `json:"title"`
	AcquiredPrice decimal.Decimal `json:"acquired_price"`
	Currency      Currency        `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
}

// VaultItem is a physical item held in the marketplace vault on the buyer's
// behalf, created when an order is settled with vault delivery.
type VaultItem struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
