package service

import (
	"context"
	"time"

	"vaultmarket/config"
	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
	"vaultmarket/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeService computes buyer and seller fees from the configured rate table.
// Fees are calculated in the listing currency and rounded to 2 decimal
// places before any conversion.
type FeeService struct {
	buyerStandard  decimal.Decimal
	buyerPro       decimal.Decimal
	sellerStandard decimal.Decimal
	sellerPro      decimal.Decimal
	subscriptions  ports.SubscriptionRepository
	now            func() time.Time
}

// NewFeeService creates a FeeService from the settlement configuration.
func NewFeeService(cfg config.SettlementConfig, subscriptions ports.SubscriptionRepository) *FeeService {
	return &FeeService{
		buyerStandard:  decimal.NewFromFloat(cfg.BuyerFeeStandard),
		buyerPro:       decimal.NewFromFloat(cfg.BuyerFeePro),
		sellerStandard: decimal.NewFromFloat(cfg.SellerFeeStandard),
		sellerPro:      decimal.NewFromFloat(cfg.SellerFeePro),
		subscriptions:  subscriptions,
		now:            time.Now,
	}
}

// ComputeFees resolves both parties' subscription tiers and applies the rate
// table. This is the authoritative calculation used inside settlement.
func (s *FeeService) ComputeFees(ctx context.Context, basePrice decimal.Decimal, buyerID, sellerID uuid.UUID) (*domain.FeeBreakdown, error) {
	buyerTier, err := s.resolveTier(ctx, buyerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	sellerTier, err := s.resolveTier(ctx, sellerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return s.Estimate(basePrice, buyerTier, sellerTier), nil
}

// Estimate applies the rate table for known tiers. Used for pre-commit price
// display; never for the committing calculation.
func (s *FeeService) Estimate(basePrice decimal.Decimal, buyerTier, sellerTier domain.Tier) *domain.FeeBreakdown {
	buyerFee := basePrice.Mul(s.buyerRate(buyerTier)).Round(2)
	sellerFee := basePrice.Mul(s.sellerRate(sellerTier)).Round(2)

	return &domain.FeeBreakdown{
		BasePrice:      basePrice,
		BuyerFee:       buyerFee,
		SellerFee:      sellerFee,
		TotalBuyerPays: basePrice.Add(buyerFee),
		SellerReceives: basePrice.Sub(sellerFee),
		BuyerTier:      buyerTier,
		SellerTier:     sellerTier,
	}
}

func (s *FeeService) resolveTier(ctx context.Context, userID uuid.UUID) (domain.Tier, error) {
	sub, err := s.subscriptions.GetByUser(ctx, userID)
	if err != nil {
		return domain.TierStandard, err
	}
	return domain.EffectiveTier(sub, s.now()), nil
}

func (s *FeeService) buyerRate(tier domain.Tier) decimal.Decimal {
	if tier == domain.TierPro {
		return s.buyerPro
	}
	return s.buyerStandard
}

func (s *FeeService) sellerRate(tier domain.Tier) decimal.Decimal {
	if tier == domain.TierPro {
		return s.sellerPro
	}
	return s.sellerStandard
}
