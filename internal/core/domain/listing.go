package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingStatus represents the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"
)

// Listing is a collectible offered for sale. Listings are created and
// cancelled outside this subsystem; the settlement pipeline only transitions
// active listings to sold, exactly once.
type Listing struct {
	ID        uuid.UUID       `json:"id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Currency  Currency        `json:"currency"`
	Status    ListingStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Purchasable reports whether the listing can still be bought.
func (l *Listing) Purchasable() bool {
	return l.Status == ListingStatusActive
}
