package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/token"
)

const cookieName = "entitlement_token"

func testCodec(now time.Time) *token.Codec {
	codec := token.NewCodec("gate-secret")
	codec.Now = func() time.Time { return now }
	return codec
}

func signedToken(t *testing.T, codec *token.Codec, expiresAt time.Time) string {
	t.Helper()
	raw, err := codec.Sign(token.Payload{Plan: entity.PlanBase, ExpiresAt: expiresAt.UnixMilli()})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return raw
}

func requestWithCookie(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: value})
	}
	return req
}

func TestAllowValidToken(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)
	g := New(codec, cookieName)

	if !g.Allow(requestWithCookie(signedToken(t, codec, now.Add(time.Hour)))) {
		t.Error("expected valid token to pass the gate")
	}
}

func TestAllowRejects(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)
	g := New(codec, cookieName)

	if g.Allow(requestWithCookie("")) {
		t.Error("expected missing cookie to be rejected")
	}
	if g.Allow(requestWithCookie("garbage")) {
		t.Error("expected malformed token to be rejected")
	}
	if g.Allow(requestWithCookie(signedToken(t, codec, now.Add(-time.Second)))) {
		t.Error("expected expired token to be rejected")
	}
}

func TestRequireTokenMiddleware(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(now)
	g := New(codec, cookieName)

	e := echo.New()
	handler := g.RequireToken()(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	ctx := e.NewContext(requestWithCookie(signedToken(t, codec, now.Add(time.Hour))), rec)
	if err := handler(ctx); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("unexpected status %d", rec.Code)
	}

	ctx = e.NewContext(requestWithCookie("bad"), httptest.NewRecorder())
	err := handler(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
