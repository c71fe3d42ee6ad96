package ports

import (
	"context"
	"time"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenService handles JWT token operations for the session boundary.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// RateService loads the exchange-rate snapshot for one settlement attempt.
type RateService interface {
	// Snapshot never fails: a missing or unreachable rate store falls back
	// to compiled-in defaults, tagged via RateSet.Source.
	Snapshot(ctx context.Context) domain.RateSet
}

// FeeService computes buyer and seller fees from a base price.
type FeeService interface {
	// ComputeFees is the authoritative calculation: it resolves both
	// parties' subscription tiers before applying the rate table.
	ComputeFees(ctx context.Context, basePrice decimal.Decimal, buyerID, sellerID uuid.UUID) (*domain.FeeBreakdown, error)
	// Estimate is the synchronous variant for pre-commit price display.
	// It must never be used for the committing calculation.
	Estimate(basePrice decimal.Decimal, buyerTier, sellerTier domain.Tier) *domain.FeeBreakdown
}

// SettlementService is the core settlement pipeline.
type SettlementService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error)
}

// CheckoutRequest holds validated input for a purchase.
type CheckoutRequest struct {
	BuyerID        uuid.UUID
	ListingID      uuid.UUID
	DeliveryOption domain.DeliveryOption
}

// EffectsDispatcher fires the best-effort downstream effects of a settled
// order. Implementations must never return settlement-blocking errors.
type EffectsDispatcher interface {
	Dispatch(order *domain.Order, listing *domain.Listing)
}

// AchievementClient notifies the gamification subsystem. Fire-and-forget:
// failures are logged by the caller, never surfaced.
type AchievementClient interface {
	NotifyOrderSettled(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) error
}

// WalletService covers wallet operations outside the settlement pipeline.
type WalletService interface {
	Topup(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error)
	GetBalance(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetStatement(ctx context.Context, ownerID uuid.UUID, limit, offset int) (*WalletStatement, error)
}

// WalletStatement is a wallet's ledger view plus reconciliation data.
type WalletStatement struct {
	Wallet       *domain.Wallet
	Transactions []domain.Transaction
	LedgerSum    decimal.Decimal
	Reconciled   bool // LedgerSum == Wallet.Balance
}

// OrderService exposes read access to settled orders.
type OrderService interface {
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, error)
}

// AuditService records audit entries asynchronously.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
