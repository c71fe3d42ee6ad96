package domain

import (
	"github.com/shopspring/decimal"
)

// Currency is one of the closed set of currencies the marketplace settles in.
// USD is the base currency; every conversion is mediated through it.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyTRY Currency = "TRY"
)

// Currencies lists every supported currency.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyEUR, CurrencyTRY}
}

// Valid reports whether c belongs to the closed currency set.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyTRY:
		return true
	}
	return false
}

// RateSource tags where a rate snapshot came from.
type RateSource string

const (
	RateSourceLive     RateSource = "live"
	RateSourceFallback RateSource = "fallback"
)

// RateSet is the exchange-rate snapshot used for a single settlement attempt.
// USDTRY and USDEUR drive all conversions; EURTRY is the derived cross rate
// persisted for audit. The set is immutable for the duration of one attempt.
type RateSet struct {
	USDTRY decimal.Decimal `json:"usd_try"`
	USDEUR decimal.Decimal `json:"usd_eur"`
	EURTRY decimal.Decimal `json:"eur_try"`
	Source RateSource      `json:"source"`
}

// usdRate returns how many units of c one USD buys.
func (r RateSet) usdRate(c Currency) decimal.Decimal {
	switch c {
	case CurrencyTRY:
		return r.USDTRY
	case CurrencyEUR:
		return r.USDEUR
	default:
		return decimal.New(1, 0)
	}
}

// ToBase converts an amount in the given currency to USD.
func (r RateSet) ToBase(amount decimal.Decimal, from Currency) decimal.Decimal {
	if from == CurrencyUSD {
		return amount
	}
	return amount.Div(r.usdRate(from))
}

// FromBase converts an amount in USD to the given currency.
func (r RateSet) FromBase(amount decimal.Decimal, to Currency) decimal.Decimal {
	if to == CurrencyUSD {
		return amount
	}
	return amount.Mul(r.usdRate(to))
}

// Convert converts between two currencies via the base currency. Identical
// source and target is the identity, so no rounding drift is introduced.
func (r RateSet) Convert(amount decimal.Decimal, from, to Currency) decimal.Decimal {
	if from == to {
		return amount
	}
	return r.FromBase(r.ToBase(amount, from), to)
}
