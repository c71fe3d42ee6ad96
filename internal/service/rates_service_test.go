package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports/mocks"
	"vaultmarket/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestRatesService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("returns cached rates without hitting the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockRateCache(ctrl)
		repo := mocks.NewMockRateRepository(ctrl)

		cached := &domain.RateSet{
			USDTRY: decimal.RequireFromString("42.00"),
			USDEUR: decimal.RequireFromString("0.93"),
			EURTRY: decimal.RequireFromString("45.16"),
			Source: domain.RateSourceLive,
		}
		cache.EXPECT().Get(ctx).Return(cached, nil)

		svc := NewRatesService(cache, repo, 5*time.Minute, logger.NewWithWriter("error", nil))
		rates := svc.Snapshot(ctx)

		assert.True(t, rates.USDTRY.Equal(cached.USDTRY))
		assert.Equal(t, domain.RateSourceLive, rates.Source)
	})

	t.Run("loads from the store and caches on a miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockRateCache(ctrl)
		repo := mocks.NewMockRateRepository(ctrl)

		cache.EXPECT().Get(ctx).Return(nil, nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY).
			Return(decimal.RequireFromString("41.50"), nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyEUR).
			Return(decimal.RequireFromString("0.92"), nil)
		cache.EXPECT().Set(ctx, gomock.Any(), 5*time.Minute).Return(nil)

		svc := NewRatesService(cache, repo, 5*time.Minute, logger.NewWithWriter("error", nil))
		rates := svc.Snapshot(ctx)

		assert.Equal(t, domain.RateSourceLive, rates.Source)
		assert.True(t, rates.USDTRY.Equal(decimal.RequireFromString("41.50")))
		// Cross rate is derived: 41.50 / 0.92
		expected := decimal.RequireFromString("41.50").Div(decimal.RequireFromString("0.92"))
		assert.True(t, rates.EURTRY.Equal(expected))
	})

	t.Run("falls back to compiled-in defaults when the store is unreachable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockRateCache(ctrl)
		repo := mocks.NewMockRateRepository(ctrl)

		cache.EXPECT().Get(ctx).Return(nil, nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY).
			Return(decimal.Zero, errors.New("connection refused"))

		svc := NewRatesService(cache, repo, 5*time.Minute, logger.NewWithWriter("error", nil))
		rates := svc.Snapshot(ctx)

		assert.Equal(t, domain.RateSourceFallback, rates.Source)
		assert.True(t, rates.USDTRY.Equal(decimal.RequireFromString("41.50")))
		assert.True(t, rates.USDEUR.Equal(decimal.RequireFromString("0.92")))
	})

	t.Run("falls back when the store returns a zero rate row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockRateCache(ctrl)
		repo := mocks.NewMockRateRepository(ctrl)

		cache.EXPECT().Get(ctx).Return(nil, nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY).
			Return(decimal.Zero, nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyEUR).
			Return(decimal.RequireFromString("0.92"), nil)

		svc := NewRatesService(cache, repo, 5*time.Minute, logger.NewWithWriter("error", nil))

		var rates domain.RateSet
		assert.NotPanics(t, func() { rates = svc.Snapshot(ctx) })
		assert.Equal(t, domain.RateSourceFallback, rates.Source)
		assert.True(t, rates.USDTRY.Equal(decimal.RequireFromString("41.50")))
	})

	t.Run("ignores a cached set with a non-positive rate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockRateCache(ctrl)
		repo := mocks.NewMockRateRepository(ctrl)

		poisoned := &domain.RateSet{
			USDTRY: decimal.RequireFromString("-1"),
			USDEUR: decimal.RequireFromString("0.92"),
			Source: domain.RateSourceLive,
		}
		cache.EXPECT().Get(ctx).Return(poisoned, nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY).
			Return(decimal.RequireFromString("41.50"), nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyEUR).
			Return(decimal.RequireFromString("0.92"), nil)
		cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any()).Return(nil)

		svc := NewRatesService(cache, repo, 5*time.Minute, logger.NewWithWriter("error", nil))
		rates := svc.Snapshot(ctx)

		assert.Equal(t, domain.RateSourceLive, rates.Source)
		assert.True(t, rates.USDTRY.Equal(decimal.RequireFromString("41.50")))
	})

	t.Run("works without a cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRateRepository(ctrl)

		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY).
			Return(decimal.RequireFromString("41.50"), nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyEUR).
			Return(decimal.RequireFromString("0.92"), nil)

		svc := NewRatesService(nil, repo, 5*time.Minute, logger.NewWithWriter("error", nil))
		rates := svc.Snapshot(ctx)
		assert.Equal(t, domain.RateSourceLive, rates.Source)
	})

	t.Run("ignores a failing cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockRateCache(ctrl)
		repo := mocks.NewMockRateRepository(ctrl)

		cache.EXPECT().Get(ctx).Return(nil, errors.New("redis down"))
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY).
			Return(decimal.RequireFromString("41.50"), nil)
		repo.EXPECT().GetRate(ctx, domain.CurrencyUSD, domain.CurrencyEUR).
			Return(decimal.RequireFromString("0.92"), nil)
		cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		svc := NewRatesService(cache, repo, 5*time.Minute, logger.NewWithWriter("error", nil))
		rates := svc.Snapshot(ctx)
		assert.Equal(t, domain.RateSourceLive, rates.Source)
	})
}
