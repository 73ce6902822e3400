package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	AccountIDHeader    = "X-Account-Id"
	AccountEmailHeader = "X-Account-Email"
)

type ActivateCodeRequest struct {
	AccountID string `json:"-"`
	Code      string `json:"code"`
}

func NewActivateCodeRequestFromContext(ctx echo.Context) (*ActivateCodeRequest, error) {
	var body ActivateCodeRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.AccountID = strings.TrimSpace(ctx.Request().Header.Get(AccountIDHeader))
	body.Code = strings.TrimSpace(body.Code)
	return &body, nil
}

func (r *ActivateCodeRequest) Validate() error {
	if r.AccountID == "" {
		return errors.New("account identity is required")
	}
	if r.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

type PaymentConfirmedRequest struct {
	PlanKey       string `json:"plan_key"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	OrderRef      string `json:"order_ref"`
}

func NewPaymentConfirmedRequestFromContext(ctx echo.Context) (*PaymentConfirmedRequest, error) {
	var body PaymentConfirmedRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.PlanKey = strings.TrimSpace(body.PlanKey)
	body.CustomerEmail = strings.TrimSpace(body.CustomerEmail)
	body.CustomerName = strings.TrimSpace(body.CustomerName)
	body.OrderRef = strings.TrimSpace(body.OrderRef)
	return &body, nil
}

func (r *PaymentConfirmedRequest) Validate() error {
	if r.PlanKey == "" {
		return errors.New("plan_key is required")
	}
	if r.OrderRef == "" {
		return errors.New("order_ref is required")
	}
	return nil
}

func (r *PaymentConfirmedRequest) GetPlanKey() string       { return r.PlanKey }
func (r *PaymentConfirmedRequest) GetCustomerEmail() string { return r.CustomerEmail }
func (r *PaymentConfirmedRequest) GetCustomerName() string  { return r.CustomerName }
func (r *PaymentConfirmedRequest) GetOrderRef() string      { return r.OrderRef }

type DeactivateCodeRequest struct {
	Code string
}

func NewDeactivateCodeRequestFromContext(ctx echo.Context) (*DeactivateCodeRequest, error) {
	return &DeactivateCodeRequest{Code: strings.TrimSpace(ctx.Param("code"))}, nil
}

func (r *DeactivateCodeRequest) Validate() error {
	if r.Code == "" {
		return errors.New("code is required")
	}
	return nil
}
