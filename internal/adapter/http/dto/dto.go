package dto

import (
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
)

// CheckoutRequest is the request body for a purchase.
type CheckoutRequest struct {
	ListingID      string `json:"listing_id" binding:"required,uuid"`
	DeliveryOption string `json:"delivery_option" binding:"required,oneof=ship vault"`
}

// EstimateRequest holds the query parameters for a fee estimate.
type EstimateRequest struct {
	BasePrice  string `form:"base_price" binding:"required"`
	BuyerTier  string `form:"buyer_tier" binding:"omitempty,oneof=standard pro"`
	SellerTier string `form:"seller_tier" binding:"omitempty,oneof=standard pro"`
}

// TopupRequest is the request body for a wallet top-up.
type TopupRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// EstimateResponse is the fee breakdown for pre-commit price display.
type EstimateResponse struct {
	BasePrice      string `json:"base_price"`
	BuyerFee       string `json:"buyer_fee"`
	SellerFee      string `json:"seller_fee"`
	TotalBuyerPays string `json:"total_buyer_pays"`
	SellerReceives string `json:"seller_receives"`
	BuyerTier      string `json:"buyer_tier"`
	SellerTier     string `json:"seller_tier"`
}

// OrderResponse is the settled-order view returned to buyers.
type OrderResponse struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listing_id"`
	BasePrice       string    `json:"base_price"`
	BuyerFee        string    `json:"buyer_fee"`
	ListingCurrency string    `json:"listing_currency"`
	BuyerCurrency   string    `json:"buyer_currency"`
	BuyerTotal      string    `json:"buyer_total"`
	RateSource      string    `json:"rate_source"`
	DeliveryOption  string    `json:"delivery_option"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// WalletBalanceResponse is the wallet balance view.
type WalletBalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// TransactionResponse is one ledger line.
type TransactionResponse struct {
	ID          string    `json:"id"`
	OrderID     *string   `json:"order_id,omitempty"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Fee         string    `json:"fee"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatementResponse is a wallet's ledger view plus reconciliation data.
type StatementResponse struct {
	Wallet       WalletBalanceResponse `json:"wallet"`
	Transactions []TransactionResponse `json:"transactions"`
	LedgerSum    string                `json:"ledger_sum"`
	Reconciled   bool                  `json:"reconciled"`
}

// FromFeeBreakdown maps a domain fee breakdown to the response shape.
func FromFeeBreakdown(fees *domain.FeeBreakdown) EstimateResponse {
	return EstimateResponse{
		BasePrice:      fees.BasePrice.StringFixed(2),
		BuyerFee:       fees.BuyerFee.StringFixed(2),
		SellerFee:      fees.SellerFee.StringFixed(2),
		TotalBuyerPays: fees.TotalBuyerPays.StringFixed(2),
		SellerReceives: fees.SellerReceives.StringFixed(2),
		BuyerTier:      string(fees.BuyerTier),
		SellerTier:     string(fees.SellerTier),
	}
}

// FromOrder maps a domain order to the response shape.
func FromOrder(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID.String(),
		ListingID:       order.ListingID.String(),
		BasePrice:       order.BasePrice.StringFixed(2),
		BuyerFee:        order.BuyerFee.StringFixed(2),
		ListingCurrency: string(order.ListingCurrency),
		BuyerCurrency:   string(order.BuyerCurrency),
		BuyerTotal:      order.BuyerTotal.StringFixed(2),
		RateSource:      string(order.Rates.Source),
		DeliveryOption:  string(order.DeliveryOption),
		Status:          string(order.Status),
		CreatedAt:       order.CreatedAt,
	}
}

// FromWallet maps a domain wallet to the balance view.
func FromWallet(wallet *domain.Wallet) WalletBalanceResponse {
	return WalletBalanceResponse{
		WalletID: wallet.ID.String(),
		Balance:  wallet.Balance.StringFixed(2),
		Currency: string(wallet.Currency),
	}
}

// FromTransaction maps a domain ledger line to the response shape.
func FromTransaction(txn domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          txn.ID.String(),
		Type:        string(txn.Type),
		Amount:      txn.Amount.StringFixed(2),
		Fee:         txn.Fee.StringFixed(2),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}
	if txn.OrderID != nil {
		id := txn.OrderID.String()
		resp.OrderID = &id
	}
	return resp
}

// FromStatement maps a wallet statement to the response shape.
func FromStatement(stmt *ports.WalletStatement) StatementResponse {
	txns := make([]TransactionResponse, 0, len(stmt.Transactions))
	for _, txn := range stmt.Transactions {
		txns = append(txns, FromTransaction(txn))
	}
	return StatementResponse{
		Wallet:       FromWallet(stmt.Wallet),
		Transactions: txns,
		LedgerSum:    stmt.LedgerSum.StringFixed(2),
		Reconciled:   stmt.Reconciled,
	}
}
