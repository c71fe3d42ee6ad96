package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryOption selects where a purchased item ends up.
type DeliveryOption string

const (
	DeliveryShip  DeliveryOption = "ship"
	DeliveryVault DeliveryOption = "vault"
)

// Valid reports whether d belongs to the closed delivery-option set.
func (d DeliveryOption) Valid() bool {
	switch d {
	case DeliveryShip, DeliveryVault:
		return true
	}
	return false
}

// OrderStatus represents the settlement state of an order.
type OrderStatus string

const (
	// OrderStatusPaid means both wallet mutations and both transaction
	// records exist. An order is only ever persisted in this status.
	OrderStatusPaid OrderStatus = "paid"
)

// Order is the immutable settlement record, created once per successful
// purchase. It snapshots every input that determined how much of which
// currency moved: fees in the listing currency, the converted buyer total
// and seller payout, and the exchange rates used.
type Order struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`

	// Amounts in the listing currency.
	BasePrice decimal.Decimal `json:"base_price"`
	BuyerFee  decimal.Decimal `json:"buyer_fee"`
	SellerFee decimal.Decimal `json:"seller_fee"`

	// Currency snapshot.
	ListingCurrency Currency        `json:"listing_currency"`
	BuyerCurrency   Currency        `json:"buyer_currency"`
	SellerCurrency  Currency        `json:"seller_currency"`
	BuyerTotal      decimal.Decimal `json:"buyer_total"`   // in buyer currency
	SellerPayout    decimal.Decimal `json:"seller_payout"` // in seller currency
	Rates           RateSet         `json:"rates"`

	DeliveryOption DeliveryOption `json:"delivery_option"`
	Status         OrderStatus    `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}
