package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/app/plan"
	"github.com/vibast-solutions/ms-go-entitlements/app/token"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

// Decision sources, from most to least trusted. Tagging the source lets
// callers and tests see which rung of the precedence chain fired.
const (
	SourceAdmin    = "admin"
	SourceDatabase = "database"
	SourceToken    = "token"
	SourceLegacy   = "legacy"
	SourceNone     = "none"
)

type Decision struct {
	Active bool
	Plan   entity.PlanKey
	Status string
	Source string
}

// Credentials is everything a request carries that can prove entitlement:
// the gateway-asserted identity plus the two cookie values.
type Credentials struct {
	AccountID   string
	Email       string
	TokenCookie string
	LegacyFlag  string
}

type entitlementRepository interface {
	Get(ctx context.Context, accountID string) (*entity.EntitlementRecord, error)
	Upsert(ctx context.Context, record *entity.EntitlementRecord) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type codeResolver interface {
	Validate(ctx context.Context, rawCode string) (*entity.ActivationCode, error)
	ResolvePlan(code *entity.ActivationCode) entity.PlanKey
	Consume(ctx context.Context, code string) error
}

// EntitlementService is the request-time precedence chain and the activation
// write path.
type EntitlementService struct {
	entitlementRepo entitlementRepository
	codes           codeResolver
	catalog         *plan.Catalog
	codec           *token.Codec
	cfg             config.EntitlementConfig
	logger          logrus.FieldLogger

	Now func() time.Time
}

func NewEntitlementService(
	entitlementRepo entitlementRepository,
	codes codeResolver,
	catalog *plan.Catalog,
	codec *token.Codec,
	cfg config.EntitlementConfig,
) *EntitlementService {
	return &EntitlementService{
		entitlementRepo: entitlementRepo,
		codes:           codes,
		catalog:         catalog,
		codec:           codec,
		cfg:             cfg,
		logger:          factory.NewModuleLogger("entitlement-service"),
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

// Decide evaluates the trust chain in strict order: administrator identity,
// the authoritative store row, the signed token, then the legacy flag. An
// explicit row that fails the active-now invariant denies immediately even
// when a still-valid token is present, because a successfully read row is
// authoritative. A store error instead falls through to the token, which
// keeps recently-activated accounts working during a transient outage.
//
// Decide never returns an error: any resolution failure degrades to an
// inactive decision so callers cannot distinguish system faults from a plain
// missing subscription.
func (s *EntitlementService) Decide(ctx context.Context, creds Credentials) Decision {
	if s.isAdmin(creds.Email) {
		return Decision{Active: true, Status: entity.EntitlementStatusActive, Source: SourceAdmin}
	}

	now := s.Now()

	if creds.AccountID != "" {
		record, err := s.entitlementRepo.Get(ctx, creds.AccountID)
		if err != nil {
			// Store unreachable: fall through to the stateless checks.
			s.logger.WithError(err).Warn("Entitlement lookup failed, using stateless fallback")
		} else if record != nil {
			if record.ActiveAt(now) {
				return Decision{Active: true, Plan: record.PlanKey, Status: record.Status, Source: SourceDatabase}
			}
			return Decision{Active: false, Plan: record.PlanKey, Status: record.Status, Source: SourceDatabase}
		}
	}

	if creds.TokenCookie != "" {
		if payload, err := s.codec.Verify(creds.TokenCookie); err == nil {
			return Decision{Active: true, Plan: payload.Plan, Status: entity.EntitlementStatusActive, Source: SourceToken}
		}
	}

	if creds.LegacyFlag == "1" {
		return Decision{Active: true, Status: entity.EntitlementStatusActive, Source: SourceLegacy}
	}

	return Decision{Active: false, Source: SourceNone}
}

func (s *EntitlementService) isAdmin(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	for _, admin := range s.cfg.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(email), admin) {
			return true
		}
	}
	return false
}

type ActivationResult struct {
	Record *entity.EntitlementRecord
	Token  string
}

// Activate redeems a code for an account: validate, resolve the plan window,
// upsert the authoritative row, burn a use, then sign a matching token. The
// upsert and the consume are independent atomic store operations. Token
// signing failure does not fail the activation; the stored row already
// answers through the database rung of Decide.
func (s *EntitlementService) Activate(ctx context.Context, accountID, rawCode string) (*ActivationResult, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrInvalidFormat
	}

	code, err := s.codes.Validate(ctx, rawCode)
	if err != nil {
		return nil, err
	}

	planKey := s.codes.ResolvePlan(code)

	now := s.Now()
	window, err := s.catalog.ResolveWindow(planKey, now)
	if err != nil {
		if errors.Is(err, plan.ErrCampaignEnded) {
			return nil, ErrCampaignEnded
		}
		return nil, err
	}

	record := &entity.EntitlementRecord{
		AccountID: accountID,
		PlanKey:   planKey,
		Status:    entity.EntitlementStatusActive,
		StartsAt:  &window.StartsAt,
		EndsAt:    &window.EndsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.entitlementRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	if err := s.codes.Consume(ctx, code.Code); err != nil {
		return nil, err
	}

	result := &ActivationResult{Record: record}

	signed, err := s.codec.Sign(token.Payload{
		Plan:      planKey,
		ExpiresAt: window.EndsAt.UnixMilli(),
		Nonce:     newNonce(),
	})
	if err != nil {
		s.logger.WithError(err).Warn("Token signing failed after activation, database row remains authoritative")
		return result, nil
	}
	result.Token = signed

	return result, nil
}

func newNonce() string {
	return uuid.NewString()
}

// RunExpirationBatch normalizes active rows whose window has closed. Decide
// evaluates the invariant at read time regardless; this keeps the table tidy
// for downstream consumers.
func (s *EntitlementService) RunExpirationBatch(ctx context.Context) error {
	affected, err := s.entitlementRepo.ExpireStale(ctx, s.Now())
	if err != nil {
		return err
	}
	s.logger.WithField("expired", affected).Info("Entitlement expiration batch completed")
	return nil
}
