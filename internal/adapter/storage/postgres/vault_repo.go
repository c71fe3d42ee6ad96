package postgres

import (
	"context"
	"fmt"

	"vaultmarket/internal/core/domain"
)

// VaultRepo implements ports.VaultRepository.
type VaultRepo struct {
	pool Pool
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(pool Pool) *VaultRepo {
	return &VaultRepo{pool: pool}
}

// Create inserts a vault item for an order settled with vault delivery.
func (r *VaultRepo) Create(ctx context.Context, item *domain.VaultItem) error {
	query := `INSERT INTO vault_items (id, owner_id, order_id, title, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, item.ID, item.OwnerID, item.OrderID, item.Title, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vault item: %w", err)
	}
	return nil
}
