package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/velora-shop/storefront-backend/pkg/config"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

// GuestBasket reads the guest basket cookie and, when a request arrives
// without one, mints a token and sets the cookie on the response. Authenticated
// requests still carry the token so login can merge the guest basket.
func GuestBasket(cfg config.BasketConfig, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				token = cookie.Value
			}
			if token == "" {
				token = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.GuestTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithBasketToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithBasketToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClearGuestBasketCookie expires the guest basket cookie on the response.
func ClearGuestBasketCookie(w http.ResponseWriter, cfg config.BasketConfig, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
