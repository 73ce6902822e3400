package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/app/plan"
)

type grantRequest interface {
	GetPlanKey() string
	GetCustomerEmail() string
	GetCustomerName() string
	GetOrderRef() string
}

type codeIssuer interface {
	Generate(ctx context.Context, params IssueParams) (string, error)
}

// PaymentGrantService turns a confirmed payment into a single-use activation
// code bound to the paying customer. Payment authenticity is the webhook
// caller's responsibility; signature verification happens before this service
// is invoked.
type PaymentGrantService struct {
	issuer codeIssuer
	logger logrus.FieldLogger
}

func NewPaymentGrantService(issuer codeIssuer) *PaymentGrantService {
	return &PaymentGrantService{
		issuer: issuer,
		logger: factory.NewModuleLogger("payment-grant-service"),
	}
}

func (s *PaymentGrantService) GrantCode(ctx context.Context, req grantRequest) (string, error) {
	planKey, ok := plan.Canonicalize(req.GetPlanKey())
	if !ok {
		return "", ErrUnknownPlan
	}

	code, err := s.issuer.Generate(ctx, IssueParams{
		PlanKey:        planKey,
		CustomerEmail:  req.GetCustomerEmail(),
		CustomerName:   req.GetCustomerName(),
		SourceOrderRef: req.GetOrderRef(),
		MaxUses:        1,
	})
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"plan":      string(planKey),
		"order_ref": req.GetOrderRef(),
	}).Info("Issued activation code for confirmed payment")

	return code, nil
}
