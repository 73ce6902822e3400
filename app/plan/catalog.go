package plan

import (
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

// ErrCampaignEnded is returned when the campaign tier is activated after its
// fixed cutoff has already passed.
var ErrCampaignEnded = errors.New("campaign ended")

// aliases collapses every historical spelling onto the one current key for
// its tier. Canonical keys map to themselves, so Canonicalize is idempotent.
var aliases = map[string]entity.PlanKey{
	"TRIAL":    entity.PlanTrial,
	"TRY":      entity.PlanTrial,
	"ANNUAL":   entity.PlanAnnual,
	"YEARLY":   entity.PlanAnnual,
	"YEAR":     entity.PlanAnnual,
	"PLUS":     entity.PlanPlus,
	"PREMIUM":  entity.PlanPlus,
	"ADDON":    entity.PlanPlus,
	"BASE":     entity.PlanBase,
	"BASIC":    entity.PlanBase,
	"STANDARD": entity.PlanBase,
	"REGULAR":  entity.PlanBase,
	"CAMPAIGN": entity.PlanCampaign,
	"SEASONAL": entity.PlanCampaign,
}

var durations = map[entity.PlanKey]time.Duration{
	entity.PlanTrial:  24 * time.Hour,
	entity.PlanAnnual: 365 * 24 * time.Hour,
	entity.PlanPlus:   28 * 24 * time.Hour,
	entity.PlanBase:   28 * 24 * time.Hour,
}

type Window struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// Catalog resolves plan identifiers and their entitlement windows. The
// campaign cutoff is injected configuration; it is the one tier whose expiry
// is an absolute instant rather than a rolling duration.
type Catalog struct {
	campaignCutoff time.Time
}

func NewCatalog(campaignCutoff time.Time) *Catalog {
	return &Catalog{campaignCutoff: campaignCutoff.UTC()}
}

// Canonicalize maps a raw plan identifier, including legacy spellings, to its
// current key. Unknown identifiers yield ok=false.
func Canonicalize(raw string) (entity.PlanKey, bool) {
	key, ok := aliases[strings.ToUpper(strings.TrimSpace(raw))]
	return key, ok
}

// ResolveWindow computes the entitlement window opened by activating the plan
// at the given instant. Every tier except CAMPAIGN rolls a fixed duration
// forward from now; CAMPAIGN always ends at the configured cutoff, and
// activating after the cutoff fails with ErrCampaignEnded instead of
// producing a window that is already over.
func (c *Catalog) ResolveWindow(key entity.PlanKey, now time.Time) (Window, error) {
	now = now.UTC()

	if key == entity.PlanCampaign {
		if now.After(c.campaignCutoff) {
			return Window{}, ErrCampaignEnded
		}
		return Window{StartsAt: now, EndsAt: c.campaignCutoff}, nil
	}

	duration, ok := durations[key]
	if !ok {
		duration = durations[entity.PlanBase]
	}
	return Window{StartsAt: now, EndsAt: now.Add(duration)}, nil
}

func (c *Catalog) CampaignCutoff() time.Time {
	return c.campaignCutoff
}
