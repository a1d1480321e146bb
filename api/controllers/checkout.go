package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/velora-shop/storefront-backend/api/middleware"
	"github.com/velora-shop/storefront-backend/api/responses"
	"github.com/velora-shop/storefront-backend/api/validators"
	checkoutsvc "github.com/velora-shop/storefront-backend/internal/checkout"
	"github.com/velora-shop/storefront-backend/pkg/config"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	CustomerName  string             `json:"customer_name" validate:"required,max=200"`
	CustomerEmail string             `json:"customer_email" validate:"required,email"`
	CustomerPhone string             `json:"customer_phone,omitempty" validate:"omitempty,max=40"`
	Shipping      types.ShippingInfo `json:"shipping"`
}

// CheckoutPlaceOrder turns the caller's basket into an order. Requires an
// authenticated, verified user; the guest cookie is expired once the order
// commits so a stale anonymous basket cannot resurface.
func CheckoutPlaceOrder(svc checkoutsvc.Service, basketCfg config.BasketConfig, secureCookies bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			UserID:        userID,
			GuestToken:    middleware.BasketTokenFromContext(r.Context()),
			CustomerName:  payload.CustomerName,
			CustomerEmail: payload.CustomerEmail,
			CustomerPhone: payload.CustomerPhone,
			Shipping:      payload.Shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		middleware.ClearGuestBasketCookie(w, basketCfg, secureCookies)
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
