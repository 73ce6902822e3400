package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

type fakeGrantRequest struct {
	planKey       string
	customerEmail string
	customerName  string
	orderRef      string
}

func (r *fakeGrantRequest) GetPlanKey() string       { return r.planKey }
func (r *fakeGrantRequest) GetCustomerEmail() string { return r.customerEmail }
func (r *fakeGrantRequest) GetCustomerName() string  { return r.customerName }
func (r *fakeGrantRequest) GetOrderRef() string      { return r.orderRef }

type fakeIssuer struct {
	generateFn func(ctx context.Context, params IssueParams) (string, error)
}

func (f *fakeIssuer) Generate(ctx context.Context, params IssueParams) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(ctx, params)
	}
	return "SUB-AAAA2222", nil
}

func TestGrantCodeCanonicalizesPlanAlias(t *testing.T) {
	var gotParams IssueParams
	s := NewPaymentGrantService(&fakeIssuer{
		generateFn: func(_ context.Context, params IssueParams) (string, error) {
			gotParams = params
			return "SUB-AAAA2222", nil
		},
	})

	code, err := s.GrantCode(context.Background(), &fakeGrantRequest{
		planKey:       "yearly",
		customerEmail: "buyer@example.com",
		customerName:  "Buyer",
		orderRef:      "order-42",
	})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if code != "SUB-AAAA2222" {
		t.Errorf("unexpected code %q", code)
	}
	if gotParams.PlanKey != entity.PlanAnnual {
		t.Errorf("expected canonical plan, got %q", gotParams.PlanKey)
	}
	if gotParams.MaxUses != 1 {
		t.Errorf("expected single-use grant, got maxUses %d", gotParams.MaxUses)
	}
	if gotParams.SourceOrderRef != "order-42" {
		t.Errorf("unexpected order ref %q", gotParams.SourceOrderRef)
	}
}

func TestGrantCodeRejectsUnknownPlan(t *testing.T) {
	s := NewPaymentGrantService(&fakeIssuer{})

	_, err := s.GrantCode(context.Background(), &fakeGrantRequest{planKey: "platinum"})
	if !errors.Is(err, ErrUnknownPlan) {
		t.Errorf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestGrantCodePropagatesIssuerExhaustion(t *testing.T) {
	s := NewPaymentGrantService(&fakeIssuer{
		generateFn: func(context.Context, IssueParams) (string, error) {
			return "", ErrServerError
		},
	})

	_, err := s.GrantCode(context.Background(), &fakeGrantRequest{planKey: "base"})
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
}
