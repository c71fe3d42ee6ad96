package domain

import (
	"github.com/shopspring/decimal"
)

// FeeBreakdown is the result of fee computation for one purchase. All
// amounts are in the listing currency.
type FeeBreakdown struct {
	BasePrice      decimal.Decimal `json:"base_price"`
	BuyerFee       decimal.Decimal `json:"buyer_fee"`
	SellerFee      decimal.Decimal `json:"seller_fee"`
	TotalBuyerPays decimal.Decimal `json:"total_buyer_pays"`
	SellerReceives decimal.Decimal `json:"seller_receives"`
	BuyerTier      Tier            `json:"buyer_tier"`
	SellerTier     Tier            `json:"seller_tier"`
}
