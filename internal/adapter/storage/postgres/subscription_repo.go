package postgres

import (
	"context"
	"errors"
	"fmt"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionRepo implements ports.SubscriptionRepository. Subscriptions
// are written by the billing system; this side only reads.
type SubscriptionRepo struct {
	pool Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(pool Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// GetByUser fetches the latest subscription record for a user.
// Returns nil, nil when the user never subscribed.
func (r *SubscriptionRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT user_id, tier, expires_at FROM subscriptions
		WHERE user_id = $1 ORDER BY expires_at DESC LIMIT 1`

	s := &domain.Subscription{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.Tier, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}
