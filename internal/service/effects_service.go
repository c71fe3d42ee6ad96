package service

import (
	"context"
	"sync"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EffectsService fires the best-effort downstream effects of a settled
// order: portfolio bookkeeping, vault intake and achievement notifications.
// Effects run after commit, outside the settlement transaction. A failed
// effect is logged and skipped; it can never undo or block the settlement.
type EffectsService struct {
	portfolio    ports.PortfolioRepository
	vault        ports.VaultRepository
	achievements ports.AchievementClient
	timeout      time.Duration
	log          zerolog.Logger
	wg           sync.WaitGroup
}

// NewEffectsService creates a new EffectsService. The achievement client may
// be nil when the gamification subsystem is not configured.
func NewEffectsService(
	portfolio ports.PortfolioRepository,
	vault ports.VaultRepository,
	achievements ports.AchievementClient,
	timeout time.Duration,
	log zerolog.Logger,
) *EffectsService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EffectsService{
		portfolio:    portfolio,
		vault:        vault,
		achievements: achievements,
		timeout:      timeout,
		log:          log,
	}
}

// Dispatch runs all effects for one settled order in the background.
func (s *EffectsService) Dispatch(order *domain.Order, listing *domain.Listing) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.run(ctx, order, listing)
	}()
}

// Wait blocks until all in-flight effects have finished. Used on shutdown
// and in tests.
func (s *EffectsService) Wait() {
	s.wg.Wait()
}

func (s *EffectsService) run(ctx context.Context, order *domain.Order, listing *domain.Listing) {
	now := time.Now().UTC()

	s.apply(ctx, order.ID, "portfolio_add", func(ctx context.Context) error {
		return s.portfolio.Create(ctx, &domain.PortfolioEntry{
			ID:            uuid.New(),
			OwnerID:       order.BuyerID,
			ListingID:     order.ListingID,
			Title:         listing.Title,
			AcquiredPrice: order.BasePrice,
			Currency:      order.ListingCurrency,
			CreatedAt:     now,
		})
	})

	s.apply(ctx, order.ID, "portfolio_remove", func(ctx context.Context) error {
		return s.portfolio.DeleteByOwnerAndTitle(ctx, order.SellerID, listing.Title)
	})

	if order.DeliveryOption == domain.DeliveryVault {
		s.apply(ctx, order.ID, "vault_intake", func(ctx context.Context) error {
			return s.vault.Create(ctx, &domain.VaultItem{
				ID:        uuid.New(),
				OwnerID:   order.BuyerID,
				OrderID:   order.ID,
				Title:     listing.Title,
				CreatedAt: now,
			})
		})
	}

	if s.achievements != nil {
		s.apply(ctx, order.ID, "notify_buyer", func(ctx context.Context) error {
			return s.achievements.NotifyOrderSettled(ctx, order.BuyerID, "buyer", order.ID)
		})
		s.apply(ctx, order.ID, "notify_seller", func(ctx context.Context) error {
			return s.achievements.NotifyOrderSettled(ctx, order.SellerID, "seller", order.ID)
		})
	}
}

// apply runs one effect with panic isolation so a broken effect cannot take
// down the others.
func (s *EffectsService) apply(ctx context.Context, orderID uuid.UUID, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("order_id", orderID.String()).
				Str("effect", name).
				Interface("panic", r).
				Msg("effect panicked")
		}
	}()

	if err := fn(ctx); err != nil {
		s.log.Warn().
			Err(err).
			Str("order_id", orderID.String()).
			Str("effect", name).
			Msg("effect failed, skipping")
	}
}
