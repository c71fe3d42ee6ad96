package postgres

import (
	"context"
	"fmt"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
)

// PortfolioRepo implements ports.PortfolioRepository. Written only by the
// effects dispatcher, after the settlement transaction has committed.
type PortfolioRepo struct {
	pool Pool
}

// NewPortfolioRepo creates a new PortfolioRepo.
func NewPortfolioRepo(pool Pool) *PortfolioRepo {
	return &PortfolioRepo{pool: pool}
}

// Create inserts a portfolio entry.
func (r *PortfolioRepo) Create(ctx context.Context, e *domain.PortfolioEntry) error {
	query := `INSERT INTO portfolio_entries (id, owner_id, listing_id, title, acquired_price, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.OwnerID, e.ListingID, e.Title, e.AcquiredPrice, string(e.Currency), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert portfolio entry: %w", err)
	}
	return nil
}

// DeleteByOwnerAndTitle removes a seller's stale entries for a sold title.
// Deleting zero rows is not an error.
func (r *PortfolioRepo) DeleteByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) error {
	query := `DELETE FROM portfolio_entries WHERE owner_id = $1 AND title = $2`

	if _, err := r.pool.Exec(ctx, query, ownerID, title); err != nil {
		return fmt.Errorf("delete portfolio entries: %w", err)
	}
	return nil
}
