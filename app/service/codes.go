package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

// codeAlphabet excludes visually confusable glyphs (0/O, 1/I/L).
const (
	codeAlphabet     = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeSuffixLength = 8
)

type activationCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.ActivationCode, error)
	Insert(ctx context.Context, code *entity.ActivationCode) error
	IncrementUse(ctx context.Context, code string) (int64, error)
	Deactivate(ctx context.Context, code string) error
}

// ActivationCodeService validates, plan-resolves and consumes activation
// codes. Consumption relies on the store's conditional increment, so two
// simultaneous activations of a maxUses=1 code cannot both succeed.
type ActivationCodeService struct {
	codeRepo activationCodeRepository
	cfg      config.EntitlementConfig

	premiumCodes map[string]struct{}

	Now func() time.Time
}

func NewActivationCodeService(codeRepo activationCodeRepository, cfg config.EntitlementConfig) *ActivationCodeService {
	premium := make(map[string]struct{}, len(cfg.PremiumCodes))
	for _, code := range cfg.PremiumCodes {
		premium[NormalizeCode(code)] = struct{}{}
	}
	return &ActivationCodeService{
		codeRepo:     codeRepo,
		cfg:          cfg,
		premiumCodes: premium,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeCode maps user input to stored form: trimmed, uppercase.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate checks shape, existence and usability of a submitted code and
// returns the stored row when it is redeemable.
func (s *ActivationCodeService) Validate(ctx context.Context, rawCode string) (*entity.ActivationCode, error) {
	normalized := NormalizeCode(rawCode)
	if normalized == "" {
		return nil, ErrInvalidFormat
	}

	code, err := s.codeRepo.FindByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, ErrCodeNotFound
	}
	if code.Exhausted() {
		return nil, ErrMaxUses
	}
	if code.Expired(s.Now()) {
		return nil, ErrCodeExpired
	}
	if !code.Active {
		return nil, ErrCodeInactive
	}

	return code, nil
}

// ResolvePlan maps a code to its plan. A bound plan on the row wins; absent
// that, content rules apply in order: premium set membership, trial marker,
// annual marker, then the current default for unbound codes, which is the
// seasonal campaign tier.
func (s *ActivationCodeService) ResolvePlan(code *entity.ActivationCode) entity.PlanKey {
	if code.PlanKey != nil && code.PlanKey.Valid() {
		return *code.PlanKey
	}
	if _, ok := s.premiumCodes[code.Code]; ok {
		return entity.PlanPlus
	}
	if strings.Contains(code.Code, "TRIAL") {
		return entity.PlanTrial
	}
	if strings.Contains(code.Code, "YEAR") {
		return entity.PlanAnnual
	}
	return entity.PlanCampaign
}

// Consume burns one use. A zero affected-row count means a concurrent
// activation won the last use, reported as ErrMaxUses rather than a fault.
func (s *ActivationCodeService) Consume(ctx context.Context, code string) error {
	affected, err := s.codeRepo.IncrementUse(ctx, NormalizeCode(code))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMaxUses
	}
	return nil
}

// Deactivate administratively retires a code. The row stays behind for audit.
func (s *ActivationCodeService) Deactivate(ctx context.Context, rawCode string) error {
	normalized := NormalizeCode(rawCode)
	if normalized == "" {
		return ErrInvalidFormat
	}

	if err := s.codeRepo.Deactivate(ctx, normalized); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	return nil
}

type IssueParams struct {
	PlanKey        entity.PlanKey
	CustomerEmail  string
	CustomerName   string
	SourceOrderRef string
	MaxUses        int32
	ValidFor       time.Duration
}

// CodeIssuer mints new unique activation codes for externally-triggered
// grants. Collisions are retried sequentially with a fresh code up to a
// fixed bound; any other storage error aborts immediately.
type CodeIssuer struct {
	codeRepo activationCodeRepository
	cfg      config.EntitlementConfig

	Now func() time.Time
}

func NewCodeIssuer(codeRepo activationCodeRepository, cfg config.EntitlementConfig) *CodeIssuer {
	return &CodeIssuer{
		codeRepo: codeRepo,
		cfg:      cfg,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (i *CodeIssuer) Generate(ctx context.Context, params IssueParams) (string, error) {
	maxUses := params.MaxUses
	if maxUses <= 0 {
		maxUses = 1
	}

	attempts := i.cfg.CodeIssueAttempts
	if attempts <= 0 {
		attempts = 5
	}

	now := i.Now()
	var expiresAt *time.Time
	if params.ValidFor > 0 {
		t := now.Add(params.ValidFor)
		expiresAt = &t
	}

	for attempt := 0; attempt < attempts; attempt++ {
		candidate, err := i.randomCode()
		if err != nil {
			return "", err
		}

		row := &entity.ActivationCode{
			Code:           candidate,
			MaxUses:        maxUses,
			ExpiresAt:      expiresAt,
			CustomerEmail:  nilIfEmpty(params.CustomerEmail),
			CustomerName:   nilIfEmpty(params.CustomerName),
			SourceOrderRef: nilIfEmpty(params.SourceOrderRef),
			Active:         true,
			CreatedAt:      now,
		}
		if params.PlanKey.Valid() {
			key := params.PlanKey
			row.PlanKey = &key
		}

		err = i.codeRepo.Insert(ctx, row)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, repository.ErrCodeAlreadyExists) {
			continue
		}
		return "", err
	}

	return "", fmt.Errorf("%w: could not allocate a unique code after %d attempts", ErrServerError, attempts)
}

func (i *CodeIssuer) randomCode() (string, error) {
	suffix := make([]byte, codeSuffixLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for n := range suffix {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[n] = codeAlphabet[idx.Int64()]
	}
	return i.cfg.CodePrefix + "-" + string(suffix), nil
}

func nilIfEmpty(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
