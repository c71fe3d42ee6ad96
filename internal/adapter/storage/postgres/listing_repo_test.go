package postgres

import (
	"context"
	"testing"
	"time"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListing() *domain.Listing {
	return &domain.Listing{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Title:     "1987 Rookie Card PSA 9",
		Price:     decimal.RequireFromString("100.00"),
		Currency:  domain.CurrencyTRY,
		Status:    domain.ListingStatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func listingRow(l *domain.Listing) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "seller_id", "title", "price", "currency", "status", "created_at", "updated_at",
	}).AddRow(
		l.ID, l.SellerID, l.Title, l.Price, string(l.Currency), string(l.Status), l.CreatedAt, l.UpdatedAt,
	)
}

func TestListingRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewListingRepo(mock)
	l := newTestListing()

	mock.ExpectQuery("SELECT .+ FROM listings WHERE id").
		WithArgs(l.ID).
		WillReturnRows(listingRow(l))

	result, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, l.ID, result.ID)
	assert.Equal(t, l.Title, result.Title)
	assert.True(t, result.Price.Equal(l.Price))
	assert.Equal(t, domain.ListingStatusActive, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewListingRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM listings WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "seller_id", "title", "price", "currency", "status", "created_at", "updated_at",
		}))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewListingRepo(mock)
	l := newTestListing()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM listings WHERE id .+ FOR UPDATE").
		WithArgs(l.ID).
		WillReturnRows(listingRow(l))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, l.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_MarkSold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewListingRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE listings SET status").
		WithArgs(string(domain.ListingStatusSold), id, string(domain.ListingStatusActive)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sold, err := repo.MarkSold(context.Background(), tx, id)
	require.NoError(t, err)
	assert.True(t, sold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_MarkSold_AlreadySold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewListingRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE listings SET status").
		WithArgs(string(domain.ListingStatusSold), id, string(domain.ListingStatusActive)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sold, err := repo.MarkSold(context.Background(), tx, id)
	require.NoError(t, err)
	assert.False(t, sold)
	assert.NoError(t, mock.ExpectationsWereMet())
}
