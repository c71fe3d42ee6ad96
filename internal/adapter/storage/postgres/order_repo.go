package postgres

import (
	"context"
	"errors"
	"fmt"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, listing_id, buyer_id, seller_id, base_price, buyer_fee, seller_fee,
		listing_currency, buyer_currency, seller_currency, buyer_total, seller_payout,
		rate_usd_try, rate_usd_eur, rate_eur_try, rate_source, delivery_option, status, created_at`

// Create inserts the immutable order row within the settlement transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.ListingID, o.BuyerID, o.SellerID,
		o.BasePrice, o.BuyerFee, o.SellerFee,
		string(o.ListingCurrency), string(o.BuyerCurrency), string(o.SellerCurrency),
		o.BuyerTotal, o.SellerPayout,
		o.Rates.USDTRY, o.Rates.USDEUR, o.Rates.EURTRY, string(o.Rates.Source),
		string(o.DeliveryOption), string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID,
		&o.BasePrice, &o.BuyerFee, &o.SellerFee,
		&o.ListingCurrency, &o.BuyerCurrency, &o.SellerCurrency,
		&o.BuyerTotal, &o.SellerPayout,
		&o.Rates.USDTRY, &o.Rates.USDEUR, &o.Rates.EURTRY, &o.Rates.Source,
		&o.DeliveryOption, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

// GetByID fetches an order by UUID.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// ListByBuyer fetches a buyer's orders, newest first.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o := domain.Order{}
		err := rows.Scan(
			&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID,
			&o.BasePrice, &o.BuyerFee, &o.SellerFee,
			&o.ListingCurrency, &o.BuyerCurrency, &o.SellerCurrency,
			&o.BuyerTotal, &o.SellerPayout,
			&o.Rates.USDTRY, &o.Rates.USDEUR, &o.Rates.EURTRY, &o.Rates.Source,
			&o.DeliveryOption, &o.Status, &o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}
