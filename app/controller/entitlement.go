package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-entitlements/app/dto"
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/app/mapper"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/types"
	"github.com/vibast-solutions/ms-go-entitlements/config"
)

type EntitlementController struct {
	entitlementService *service.EntitlementService
	codeService        *service.ActivationCodeService
	grantService       *service.PaymentGrantService
	cfg                config.EntitlementConfig
	logger             logrus.FieldLogger
}

func NewEntitlementController(
	entitlementService *service.EntitlementService,
	codeService *service.ActivationCodeService,
	grantService *service.PaymentGrantService,
	cfg config.EntitlementConfig,
) *EntitlementController {
	return &EntitlementController{
		entitlementService: entitlementService,
		codeService:        codeService,
		grantService:       grantService,
		cfg:                cfg,
		logger:             factory.NewModuleLogger("entitlements-controller"),
	}
}

func (c *EntitlementController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &dto.HealthResponse{Status: "ok"})
}

// GetEntitlement runs the full precedence check for the calling identity.
// The decision always comes back 200: failures degrade to an inactive
// decision rather than leaking which rung of the chain broke.
func (c *EntitlementController) GetEntitlement(ctx echo.Context) error {
	decision := c.entitlementService.Decide(ctx.Request().Context(), c.credentialsFromContext(ctx))
	return ctx.JSON(http.StatusOK, mapper.DecisionToResponse(decision))
}

func (c *EntitlementController) ActivateCode(ctx echo.Context) error {
	req, err := types.NewActivateCodeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.entitlementService.Activate(ctx.Request().Context(), req.AccountID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFormat):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCodeNotFound):
			return c.writeError(ctx, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrMaxUses),
			errors.Is(err, service.ErrCodeExpired),
			errors.Is(err, service.ErrCodeInactive),
			errors.Is(err, service.ErrCampaignEnded):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Code activation failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	if result.Token != "" {
		c.setTokenCookie(ctx, result.Token, result.Record.EndsAt)
	}

	return ctx.JSON(http.StatusOK, &dto.ActivationResponse{
		Entitlement: mapper.EntitlementToResponse(result.Record),
	})
}

func (c *EntitlementController) PaymentConfirmedWebhook(ctx echo.Context) error {
	req, err := types.NewPaymentConfirmedRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	code, err := c.grantService.GrantCode(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlan):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			// Retry exhaustion in the issuer lands here; it is the one
			// activation-path failure treated as alerting rather than a
			// normal negative result.
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Payment grant failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &dto.GrantCodeResponse{Code: code})
}

func (c *EntitlementController) DeactivateCode(ctx echo.Context) error {
	req, err := types.NewDeactivateCodeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.codeService.Deactivate(ctx.Request().Context(), req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFormat):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCodeNotFound):
			return c.writeError(ctx, http.StatusNotFound, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Code deactivation failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &dto.MessageResponse{Message: "Code deactivated"})
}

func (c *EntitlementController) credentialsFromContext(ctx echo.Context) service.Credentials {
	creds := service.Credentials{
		AccountID: ctx.Request().Header.Get(types.AccountIDHeader),
		Email:     ctx.Request().Header.Get(types.AccountEmailHeader),
	}
	if cookie, err := ctx.Cookie(c.cfg.TokenCookieName); err == nil {
		creds.TokenCookie = cookie.Value
	}
	if cookie, err := ctx.Cookie(c.cfg.LegacyCookieName); err == nil {
		creds.LegacyFlag = cookie.Value
	}
	return creds
}

// setTokenCookie writes the signed token. The cookie's own MaxAge is advisory
// transport metadata; the expiry that counts is inside the signed payload.
func (c *EntitlementController) setTokenCookie(ctx echo.Context, token string, endsAt *time.Time) {
	cookie := &http.Cookie{
		Name:     c.cfg.TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.cfg.SecureCookies,
	}
	if endsAt != nil {
		if remaining := int(time.Until(*endsAt).Seconds()); remaining > 0 {
			cookie.MaxAge = remaining
		}
	}
	ctx.SetCookie(cookie)
}

func (c *EntitlementController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &dto.ErrorResponse{Error: message})
}
