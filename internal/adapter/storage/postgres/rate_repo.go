package postgres

import (
	"context"
	"errors"
	"fmt"

	"vaultmarket/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrRateNotFound is returned when the rate store has no row for a pair.
// Callers fall back to compiled-in defaults.
var ErrRateNotFound = errors.New("exchange rate not found")

// RateRepo implements ports.RateRepository over the exchange_rates table of
// {from_currency, to_currency, rate} rows maintained by an external feed.
type RateRepo struct {
	pool Pool
}

// NewRateRepo creates a new RateRepo.
func NewRateRepo(pool Pool) *RateRepo {
	return &RateRepo{pool: pool}
}

// GetRate fetches a single conversion factor.
func (r *RateRepo) GetRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	query := `SELECT rate FROM exchange_rates WHERE from_currency = $1 AND to_currency = $2`

	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, query, string(from), string(to)).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrRateNotFound
		}
		return decimal.Zero, fmt.Errorf("get rate %s/%s: %w", from, to, err)
	}
	return rate, nil
}
