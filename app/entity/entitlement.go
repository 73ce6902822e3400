package entity

import "time"

const (
	EntitlementStatusActive   = "active"
	EntitlementStatusInactive = "inactive"
)

// EntitlementRecord is the authoritative per-account entitlement row, keyed on
// AccountID. Cookie state is a derived cache of it, never the other way round.
type EntitlementRecord struct {
	AccountID string
	PlanKey   PlanKey
	Status    string
	StartsAt  *time.Time
	EndsAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt reports whether the record grants access at the given instant.
// A nil StartsAt/EndsAt means unbounded on that side.
func (r *EntitlementRecord) ActiveAt(now time.Time) bool {
	if r.Status != EntitlementStatusActive {
		return false
	}
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return false
	}
	if r.EndsAt != nil && !now.Before(*r.EndsAt) {
		return false
	}
	return true
}
