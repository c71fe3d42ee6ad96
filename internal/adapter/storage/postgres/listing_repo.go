package postgres

import (
	"context"
	"errors"
	"fmt"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListingRepo implements ports.ListingRepository.
type ListingRepo struct {
	pool Pool
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(pool Pool) *ListingRepo {
	return &ListingRepo{pool: pool}
}

const listingColumns = `id, seller_id, title, price, currency, status, created_at, updated_at`

func scanListing(row pgx.Row) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := row.Scan(
		&l.ID, &l.SellerID, &l.Title, &l.Price, &l.Currency, &l.Status,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return l, nil
}

// GetByID fetches a listing (non-locking read).
func (r *ListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return scanListing(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a listing with pessimistic locking. Concurrent
// settlement attempts against the same listing serialize on this lock.
// This MUST be called within a transaction.
func (r *ListingRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`
	return scanListing(tx.QueryRow(ctx, query, id))
}

// MarkSold transitions a listing from active to sold. The conditional WHERE
// guarantees the transition happens at most once even if the lock discipline
// is ever bypassed.
func (r *ListingRepo) MarkSold(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `UPDATE listings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	tag, err := tx.Exec(ctx, query, string(domain.ListingStatusSold), id, string(domain.ListingStatusActive))
	if err != nil {
		return false, fmt.Errorf("mark listing sold: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
