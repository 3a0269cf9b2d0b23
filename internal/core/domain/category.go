package domain

import "time"

// Category is an enumerated aid purpose restricting how funds may be spent.
type Category string

const (
	CategoryFood              Category = "food"
	CategoryMedical           Category = "medical"
	CategoryShelter           Category = "shelter"
	CategoryWater             Category = "water"
	CategoryClothing          Category = "clothing"
	CategoryEmergencySupplies Category = "emergency_supplies"
)

// StandardCategories returns the fixed set of aid categories, in the
// order balances are reported.
func StandardCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryMedical,
		CategoryShelter,
		CategoryWater,
		CategoryClothing,
		CategoryEmergencySupplies,
	}
}

// ValidCategory reports whether c is one of the standard categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryFood, CategoryMedical, CategoryShelter,
		CategoryWater, CategoryClothing, CategoryEmergencySupplies:
		return true
	}
	return false
}

// CategoryLimit holds administrator-configured spending ceilings for one
// category. All amounts are minor units. Read-only to the authorization
// core.
type CategoryLimit struct {
	Category            Category   `json:"category"`
	PerTransactionLimit int64      `json:"per_transaction_limit"`
	DailyLimit          int64      `json:"daily_limit"`
	WeeklyLimit         int64      `json:"weekly_limit"`
	MonthlyLimit        int64      `json:"monthly_limit"`
	IsActive            bool       `json:"is_active"`
	EmergencyOverride   bool       `json:"emergency_override"`
	OverrideExpiresAt   *time.Time `json:"override_expires_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// OverrideActive reports whether the emergency override suspends limit
// enforcement at the given instant. An override with no expiry stays
// active until an administrator clears it.
func (l *CategoryLimit) OverrideActive(now time.Time) bool {
	if !l.EmergencyOverride {
		return false
	}
	if l.OverrideExpiresAt == nil {
		return true
	}
	return now.Before(*l.OverrideExpiresAt)
}

// CategoryBalance is the derived per-(beneficiary, category) balance. It
// is recomputed from the transaction log on every query and never
// persisted. AvailableBalance is never negative.
type CategoryBalance struct {
	Category         Category `json:"category"`
	TotalReceived    int64    `json:"total_received"`
	TotalSpent       int64    `json:"total_spent"`
	AvailableBalance int64    `json:"available_balance"`
	// FallbackAllocated marks balances funded by the equal split of the
	// unallocated wallet remainder rather than by earmarked donations.
	FallbackAllocated bool `json:"fallback_allocated"`
}
