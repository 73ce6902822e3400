package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

func TestCanonicalizeAliases(t *testing.T) {
	cases := map[string]entity.PlanKey{
		"base":      entity.PlanBase,
		"BASIC":     entity.PlanBase,
		" standard": entity.PlanBase,
		"Regular":   entity.PlanBase,
		"yearly":    entity.PlanAnnual,
		"YEAR":      entity.PlanAnnual,
		"annual":    entity.PlanAnnual,
		"premium":   entity.PlanPlus,
		"addon":     entity.PlanPlus,
		"plus":      entity.PlanPlus,
		"try":       entity.PlanTrial,
		"trial":     entity.PlanTrial,
		"seasonal":  entity.PlanCampaign,
		"campaign":  entity.PlanCampaign,
	}

	for raw, want := range cases {
		got, ok := Canonicalize(raw)
		if !ok {
			t.Errorf("Canonicalize(%q) not recognized", raw)
			continue
		}
		if got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for raw := range aliases {
		first, ok := Canonicalize(raw)
		if !ok {
			t.Fatalf("alias %q not recognized", raw)
		}
		second, ok := Canonicalize(string(first))
		if !ok {
			t.Fatalf("canonical key %q not recognized", first)
		}
		if first != second {
			t.Errorf("canonicalize not idempotent for %q: %q != %q", raw, first, second)
		}
	}
}

func TestCanonicalizeUnknown(t *testing.T) {
	if _, ok := Canonicalize("platinum"); ok {
		t.Error("expected unknown plan to be rejected")
	}
	if _, ok := Canonicalize(""); ok {
		t.Error("expected empty plan to be rejected")
	}
}

func TestResolveWindowRollingDurations(t *testing.T) {
	catalog := NewCatalog(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC))
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := map[entity.PlanKey]time.Duration{
		entity.PlanTrial:  24 * time.Hour,
		entity.PlanAnnual: 365 * 24 * time.Hour,
		entity.PlanPlus:   28 * 24 * time.Hour,
		entity.PlanBase:   28 * 24 * time.Hour,
	}

	for key, duration := range cases {
		window, err := catalog.ResolveWindow(key, now)
		if err != nil {
			t.Fatalf("ResolveWindow(%q) failed: %v", key, err)
		}
		if !window.StartsAt.Equal(now) {
			t.Errorf("ResolveWindow(%q) startsAt = %v, want %v", key, window.StartsAt, now)
		}
		if !window.EndsAt.Equal(now.Add(duration)) {
			t.Errorf("ResolveWindow(%q) endsAt = %v, want %v", key, window.EndsAt, now.Add(duration))
		}
	}
}

func TestResolveWindowCampaignFixedCutoff(t *testing.T) {
	cutoff := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	catalog := NewCatalog(cutoff)

	// Last valid second still ends at the cutoff, not now+28d.
	window, err := catalog.ResolveWindow(entity.PlanCampaign, cutoff.Add(-time.Second))
	if err != nil {
		t.Fatalf("ResolveWindow before cutoff failed: %v", err)
	}
	if !window.EndsAt.Equal(cutoff) {
		t.Errorf("campaign endsAt = %v, want %v", window.EndsAt, cutoff)
	}

	// Activating exactly at the cutoff is still allowed.
	if _, err := catalog.ResolveWindow(entity.PlanCampaign, cutoff); err != nil {
		t.Errorf("ResolveWindow at cutoff failed: %v", err)
	}

	// One second past the cutoff is rejected outright.
	_, err = catalog.ResolveWindow(entity.PlanCampaign, cutoff.Add(time.Second))
	if !errors.Is(err, ErrCampaignEnded) {
		t.Errorf("expected ErrCampaignEnded, got %v", err)
	}
}
