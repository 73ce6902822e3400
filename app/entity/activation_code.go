package entity

import "time"

// ActivationCode rows are immutable once created except for the uses counter
// and the active flag. Rows are never deleted; exhausted and deactivated codes
// stay behind as an audit trail.
type ActivationCode struct {
	Code           string
	PlanKey        *PlanKey
	MaxUses        int32
	Uses           int32
	ExpiresAt      *time.Time
	CustomerEmail  *string
	CustomerName   *string
	SourceOrderRef *string
	Active         bool
	CreatedAt      time.Time
}

func (c *ActivationCode) Exhausted() bool {
	return c.Uses >= c.MaxUses
}

func (c *ActivationCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
