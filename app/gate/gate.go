package gate

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-entitlements/app/token"
)

// Gate is the pre-filter for protected routes. It checks only the signed
// token cookie, never the database. Database-only entitlements are invisible
// to it; the full resolver stays authoritative.
type Gate struct {
	codec      *token.Codec
	cookieName string
}

func New(codec *token.Codec, cookieName string) *Gate {
	return &Gate{codec: codec, cookieName: cookieName}
}

// Allow reports whether the request carries a valid, unexpired signed token.
func (g *Gate) Allow(r *http.Request) bool {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = g.codec.Verify(cookie.Value)
	return err == nil
}

// RequireToken is the echo middleware form of Allow.
func (g *Gate) RequireToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !g.Allow(ctx.Request()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "entitlement required")
			}
			return next(ctx)
		}
	}
}
