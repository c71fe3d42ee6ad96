package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
	"vaultmarket/internal/core/ports/mocks"
	"vaultmarket/pkg/apperror"
	"vaultmarket/pkg/logger"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func liveRates() domain.RateSet {
	return domain.RateSet{
		USDTRY: decimal.RequireFromString("41.50"),
		USDEUR: decimal.RequireFromString("0.92"),
		EURTRY: decimal.RequireFromString("41.50").Div(decimal.RequireFromString("0.92")),
		Source: domain.RateSourceLive,
	}
}

func standardFees(basePrice decimal.Decimal) *domain.FeeBreakdown {
	buyerFee := basePrice.Mul(decimal.RequireFromString("0.05")).Round(2)
	sellerFee := basePrice.Mul(decimal.RequireFromString("0.08")).Round(2)
	return &domain.FeeBreakdown{
		BasePrice:      basePrice,
		BuyerFee:       buyerFee,
		SellerFee:      sellerFee,
		TotalBuyerPays: basePrice.Add(buyerFee),
		SellerReceives: basePrice.Sub(sellerFee),
		BuyerTier:      domain.TierStandard,
		SellerTier:     domain.TierStandard,
	}
}

type settlementFixture struct {
	ctrl     *gomock.Controller
	db       *mocks.MockDBTransactor
	listings *mocks.MockListingRepository
	wallets  *mocks.MockWalletRepository
	orders   *mocks.MockOrderRepository
	txns     *mocks.MockTransactionRepository
	rates    *mocks.MockRateService
	fees     *mocks.MockFeeService
	effects  *mocks.MockEffectsDispatcher
	pool     pgxmock.PgxPoolIface
	svc      *SettlementService
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	f := &settlementFixture{
		ctrl:     ctrl,
		db:       mocks.NewMockDBTransactor(ctrl),
		listings: mocks.NewMockListingRepository(ctrl),
		wallets:  mocks.NewMockWalletRepository(ctrl),
		orders:   mocks.NewMockOrderRepository(ctrl),
		txns:     mocks.NewMockTransactionRepository(ctrl),
		rates:    mocks.NewMockRateService(ctrl),
		fees:     mocks.NewMockFeeService(ctrl),
		effects:  mocks.NewMockEffectsDispatcher(ctrl),
		pool:     pool,
	}
	f.svc = NewSettlementService(
		f.db, f.listings, f.wallets, f.orders, f.txns,
		f.rates, f.fees, f.effects, nil,
		logger.NewWithWriter("error", nil),
	)
	return f
}

// beginTx wires the mock transactor to hand out a pgxmock transaction.
func (f *settlementFixture) beginTx(t *testing.T, expectCommit bool) {
	t.Helper()
	f.pool.ExpectBegin()
	if expectCommit {
		f.pool.ExpectCommit()
	} else {
		f.pool.ExpectRollback()
	}
	tx, err := f.pool.Begin(context.Background())
	require.NoError(t, err)
	f.db.EXPECT().Begin(gomock.Any()).Return(tx, nil)
}

func activeListing(price string) *domain.Listing {
	return &domain.Listing{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Title:     "1987 Rookie Card PSA 9",
		Price:     decimal.RequireFromString(price),
		Currency:  domain.CurrencyTRY,
		Status:    domain.ListingStatusActive,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func tryWallet(ownerID uuid.UUID, balance string) *domain.Wallet {
	return &domain.Wallet{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Balance:  decimal.RequireFromString(balance),
		Currency: domain.CurrencyTRY,
	}
}

func TestSettlementService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a standard purchase in the listing currency", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		buyerWallet := tryWallet(buyerID, "250.00")
		sellerWallet := tryWallet(listing.SellerID, "10.00")

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, true)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(buyerWallet, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)

		f.orders.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
		f.listings.EXPECT().MarkSold(ctx, gomock.Any(), listing.ID).Return(true, nil)

		f.wallets.EXPECT().
			UpdateBalance(ctx, gomock.Any(), buyerWallet.ID, decimal.RequireFromString("145.00")).
			Return(nil)
		f.txns.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ any, txn *domain.Transaction) error {
				assert.Equal(t, domain.TransactionTypePurchase, txn.Type)
				assert.True(t, txn.Amount.Equal(decimal.RequireFromString("-105.00")))
				return nil
			})
		f.wallets.EXPECT().
			UpdateBalance(ctx, gomock.Any(), sellerWallet.ID, decimal.RequireFromString("102.00")).
			Return(nil)
		f.txns.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ any, txn *domain.Transaction) error {
				assert.Equal(t, domain.TransactionTypeSale, txn.Type)
				assert.True(t, txn.Amount.Equal(decimal.RequireFromString("92.00")))
				return nil
			})

		f.effects.EXPECT().Dispatch(gomock.Any(), listing)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.True(t, order.BuyerTotal.Equal(decimal.RequireFromString("105.00")))
		assert.True(t, order.SellerPayout.Equal(decimal.RequireFromString("92.00")))
		assert.Equal(t, domain.OrderStatusPaid, order.Status)
		assert.Equal(t, domain.RateSourceLive, order.Rates.Source)
	})

	t.Run("converts the buyer total into the buyer wallet currency", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		buyerWallet := &domain.Wallet{
			ID:       uuid.New(),
			OwnerID:  buyerID,
			Balance:  decimal.RequireFromString("50.00"),
			Currency: domain.CurrencyEUR,
		}
		sellerWallet := tryWallet(listing.SellerID, "0.00")

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, true)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(buyerWallet, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)
		f.orders.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
		f.listings.EXPECT().MarkSold(ctx, gomock.Any(), listing.ID).Return(true, nil)
		f.wallets.EXPECT().UpdateBalance(ctx, gomock.Any(), buyerWallet.ID, gomock.Any()).Return(nil)
		f.txns.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
		f.wallets.EXPECT().UpdateBalance(ctx, gomock.Any(), sellerWallet.ID, gomock.Any()).Return(nil)
		f.txns.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
		f.effects.EXPECT().Dispatch(gomock.Any(), listing)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		require.NoError(t, err)

		// 105 TRY -> USD -> EUR: 105 / 41.50 * 0.92 = 2.3277..., rounded 2.33
		assert.True(t, order.BuyerTotal.Equal(decimal.RequireFromString("2.33")),
			"got %s", order.BuyerTotal)
		assert.Equal(t, domain.CurrencyEUR, order.BuyerCurrency)
		assert.Equal(t, domain.CurrencyTRY, order.SellerCurrency)
	})

	t.Run("rejects a purchase the buyer cannot cover", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		buyerWallet := tryWallet(buyerID, "104.99")
		sellerWallet := tryWallet(listing.SellerID, "0.00")

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, false)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(buyerWallet, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_003")
		assert.Contains(t, err.Error(), "105.00 TRY required")
		assert.Contains(t, err.Error(), "104.99 TRY available")
	})

	t.Run("rejects buying your own listing", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        listing.SellerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_001")
	})

	t.Run("rejects an unknown delivery option before touching any store", func(t *testing.T) {
		f := newSettlementFixture(t)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        uuid.New(),
			ListingID:      uuid.New(),
			DeliveryOption: domain.DeliveryOption("teleport"),
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_008")
	})

	t.Run("rejects an unknown listing", func(t *testing.T) {
		f := newSettlementFixture(t)

		listingID := uuid.New()
		f.listings.EXPECT().GetByID(ctx, listingID).Return(nil, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        uuid.New(),
			ListingID:      listingID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_006")
	})

	t.Run("rejects an already-sold listing before opening a transaction", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		listing.Status = domain.ListingStatusSold
		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        uuid.New(),
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_004")
	})

	t.Run("rejects a listing that sold between read and lock", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()

		soldCopy := *listing
		soldCopy.Status = domain.ListingStatusSold

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, false)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(&soldCopy, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_004")
	})

	t.Run("treats a lost MarkSold race as unavailable", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		buyerWallet := tryWallet(buyerID, "250.00")
		sellerWallet := tryWallet(listing.SellerID, "0.00")

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, false)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(buyerWallet, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)
		f.orders.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
		f.listings.EXPECT().MarkSold(ctx, gomock.Any(), listing.ID).Return(false, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_004")
	})

	t.Run("surfaces a missing buyer wallet", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		sellerWallet := tryWallet(listing.SellerID, "0.00")

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, false)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(nil, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_002")
	})

	t.Run("maps a failed ledger write to a settlement failure", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		buyerWallet := tryWallet(buyerID, "250.00")
		sellerWallet := tryWallet(listing.SellerID, "0.00")

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(liveRates())
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, false)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(buyerWallet, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)
		f.orders.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryShip,
		})
		assert.Nil(t, order)
		assertAppError(t, err, "SET_005")
	})

	t.Run("records fallback rates on the order", func(t *testing.T) {
		f := newSettlementFixture(t)

		listing := activeListing("100.00")
		buyerID := uuid.New()
		buyerWallet := tryWallet(buyerID, "250.00")
		sellerWallet := tryWallet(listing.SellerID, "0.00")

		fallback := domain.RateSet{
			USDTRY: decimal.RequireFromString("41.50"),
			USDEUR: decimal.RequireFromString("0.92"),
			EURTRY: decimal.RequireFromString("41.50").Div(decimal.RequireFromString("0.92")),
			Source: domain.RateSourceFallback,
		}

		f.listings.EXPECT().GetByID(ctx, listing.ID).Return(listing, nil)
		f.rates.EXPECT().Snapshot(gomock.Any()).Return(fallback)
		f.fees.EXPECT().ComputeFees(ctx, listing.Price, buyerID, listing.SellerID).
			Return(standardFees(listing.Price), nil)

		f.beginTx(t, true)
		f.listings.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), listing.ID).Return(listing, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), buyerID).Return(buyerWallet, nil)
		f.wallets.EXPECT().GetByOwnerForUpdate(ctx, gomock.Any(), listing.SellerID).Return(sellerWallet, nil)
		f.orders.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)
		f.listings.EXPECT().MarkSold(ctx, gomock.Any(), listing.ID).Return(true, nil)
		f.wallets.EXPECT().UpdateBalance(ctx, gomock.Any(), buyerWallet.ID, gomock.Any()).Return(nil)
		f.txns.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
		f.wallets.EXPECT().UpdateBalance(ctx, gomock.Any(), sellerWallet.ID, gomock.Any()).Return(nil)
		f.effects.EXPECT().Dispatch(gomock.Any(), listing)

		order, err := f.svc.Checkout(ctx, ports.CheckoutRequest{
			BuyerID:        buyerID,
			ListingID:      listing.ID,
			DeliveryOption: domain.DeliveryVault,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RateSourceFallback, order.Rates.Source)
		assert.Equal(t, domain.DeliveryVault, order.DeliveryOption)
	})
}
