package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a subscription level determining fee rates for a party.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// Subscription is a time-bounded tier record for one user.
type Subscription struct {
	UserID    uuid.UUID `json:"user_id"`
	Tier      Tier      `json:"tier"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveAt reports whether the subscription is in effect at the given time.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// EffectiveTier resolves a possibly-nil or expired subscription to a tier.
// Absent or expired records are treated as standard.
func EffectiveTier(s *Subscription, now time.Time) Tier {
	if s == nil || !s.ActiveAt(now) {
		return TierStandard
	}
	return s.Tier
}
