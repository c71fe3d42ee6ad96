package service

import (
	"context"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Compiled-in fallback rates, used when both the cache and the rate store
// are unreachable or empty. Settlement must not block on rate availability.
var (
	fallbackUSDTRY = decimal.RequireFromString("41.50")
	fallbackUSDEUR = decimal.RequireFromString("0.92")
)

// RatesService loads the exchange-rate snapshot for a settlement attempt.
// Lookup order: cache, then rate store, then compiled-in defaults.
type RatesService struct {
	cache ports.RateCache
	repo  ports.RateRepository
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRatesService creates a new RatesService. The cache may be nil, in which
// case every snapshot hits the rate store.
func NewRatesService(cache ports.RateCache, repo ports.RateRepository, ttl time.Duration, log zerolog.Logger) *RatesService {
	return &RatesService{
		cache: cache,
		repo:  repo,
		ttl:   ttl,
		log:   log,
	}
}

// Snapshot returns the rates for one settlement attempt. It never fails:
// when the store is unreachable the fallback set is returned, tagged so the
// order records which rates actually applied.
func (s *RatesService) Snapshot(ctx context.Context) domain.RateSet {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Debug().Err(err).Msg("rate cache read failed")
		} else if cached != nil {
			if usableRates(cached.USDTRY, cached.USDEUR) {
				return *cached
			}
			s.log.Warn().Msg("cached rates are non-positive, ignoring")
		}
	}

	usdTry, err := s.repo.GetRate(ctx, domain.CurrencyUSD, domain.CurrencyTRY)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate store unavailable, using fallback rates")
		return fallbackRates()
	}
	usdEur, err := s.repo.GetRate(ctx, domain.CurrencyUSD, domain.CurrencyEUR)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate store unavailable, using fallback rates")
		return fallbackRates()
	}
	// A zero or negative rate row would divide by zero during conversion;
	// treat it the same as a missing store.
	if !usableRates(usdTry, usdEur) {
		s.log.Warn().
			Str("usd_try", usdTry.String()).
			Str("usd_eur", usdEur.String()).
			Msg("rate store returned non-positive rates, using fallback rates")
		return fallbackRates()
	}

	rates := domain.RateSet{
		USDTRY: usdTry,
		USDEUR: usdEur,
		EURTRY: usdTry.Div(usdEur),
		Source: domain.RateSourceLive,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, &rates, s.ttl); err != nil {
			s.log.Debug().Err(err).Msg("rate cache write failed")
		}
	}
	return rates
}

func usableRates(usdTry, usdEur decimal.Decimal) bool {
	return usdTry.IsPositive() && usdEur.IsPositive()
}

func fallbackRates() domain.RateSet {
	return domain.RateSet{
		USDTRY: fallbackUSDTRY,
		USDEUR: fallbackUSDEUR,
		EURTRY: fallbackUSDTRY.Div(fallbackUSDEUR),
		Source: domain.RateSourceFallback,
	}
}
