package ports

import (
	"context"
	"time"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Listing, error)
	// MarkSold transitions a listing from active to sold. It returns false
	// when the listing was not active, so a lost race never double-sells.
	MarkSold(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// OrderRepository defines persistence operations for settlement orders.
// Orders are immutable once created.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, error)
}

// TransactionRepository defines persistence for wallet ledger lines.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, error)
	// SumByWallet returns the signed sum of all ledger lines for a wallet,
	// used to reconcile the ledger against the balance.
	SumByWallet(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
}

// SubscriptionRepository is the read-only subscription store boundary.
type SubscriptionRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
}

// RateRepository is the read-only exchange-rate store boundary. Missing rows
// are tolerated by the caller via compiled-in defaults.
type RateRepository interface {
	GetRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error)
}

// PortfolioRepository defines persistence for user portfolio entries.
// Written only by the effects dispatcher, outside the settlement transaction.
type PortfolioRepository interface {
	Create(ctx context.Context, entry *domain.PortfolioEntry) error
	DeleteByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) error
}

// VaultRepository defines persistence for vault-held items.
type VaultRepository interface {
	Create(ctx context.Context, item *domain.VaultItem) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// RateCache is the volatile cache in front of the rate store.
type RateCache interface {
	Get(ctx context.Context) (*domain.RateSet, error) // nil, nil on miss
	Set(ctx context.Context, rates *domain.RateSet, ttl time.Duration) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
