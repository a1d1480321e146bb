package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/velora-shop/storefront-backend/pkg/config"
)

func testBasketConfig() config.BasketConfig {
	return config.BasketConfig{
		GuestTTL:   168 * time.Hour,
		CookieName: "basket",
	}
}

func TestGuestBasketMintsCookieWhenAbsent(t *testing.T) {
	cfg := testBasketConfig()

	var captured string
	handler := GuestBasket(cfg, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = BasketTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/basket", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if captured == "" {
		t.Fatal("expected basket token in context")
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != cfg.CookieName {
		t.Fatalf("unexpected cookie name %q", cookie.Name)
	}
	if cookie.Value != captured {
		t.Fatalf("cookie %q does not match context token %q", cookie.Value, captured)
	}
	if !cookie.HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
	if cookie.MaxAge != int(cfg.GuestTTL.Seconds()) {
		t.Fatalf("unexpected cookie max age %d", cookie.MaxAge)
	}
}

func TestGuestBasketReusesExistingCookie(t *testing.T) {
	cfg := testBasketConfig()

	var captured string
	handler := GuestBasket(cfg, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = BasketTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/basket", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "existing-token"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if captured != "existing-token" {
		t.Fatalf("expected existing token, got %q", captured)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("existing cookie should not be reissued")
	}
}

func TestClearGuestBasketCookieExpiresIt(t *testing.T) {
	cfg := testBasketConfig()
	resp := httptest.NewRecorder()

	ClearGuestBasketCookie(resp, cfg, false)

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got max age %d", cookies[0].MaxAge)
	}
}
