package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/velora-shop/storefront-backend/api/middleware"
	"github.com/velora-shop/storefront-backend/api/responses"
	"github.com/velora-shop/storefront-backend/api/validators"
	basketsvc "github.com/velora-shop/storefront-backend/internal/basket"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

type basketLinePayload struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Color     string    `json:"color" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type replaceBasketRequest struct {
	Lines []basketLinePayload `json:"lines" validate:"dive"`
}

type updateBasketLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Color     string    `json:"color" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=0"`
}

type basketResponse struct {
	Lines         []basketsvc.Line `json:"lines"`
	Subtotal      string           `json:"subtotal"`
	TotalQuantity int              `json:"total_quantity"`
}

func newBasketResponse(b *basketsvc.Basket) basketResponse {
	lines := b.Lines
	if lines == nil {
		lines = []basketsvc.Line{}
	}
	return basketResponse{
		Lines:         lines,
		Subtotal:      b.Subtotal().StringFixed(2),
		TotalQuantity: b.TotalQuantity(),
	}
}

// basketIdentity resolves whose basket the request targets: the authenticated
// user when a valid token was presented, otherwise the guest cookie token.
func basketIdentity(r *http.Request) (basketsvc.Identity, error) {
	if userID := middleware.UserIDFromContext(r.Context()); userID != uuid.Nil {
		return basketsvc.Identity{UserID: userID}, nil
	}
	if token := middleware.BasketTokenFromContext(r.Context()); token != "" {
		return basketsvc.Identity{GuestToken: token}, nil
	}
	return basketsvc.Identity{}, pkgerrors.New(pkgerrors.CodeValidation, "basket identity is required")
}

// BasketGet returns the current basket.
func BasketGet(svc *basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := basketIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		b, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(b))
	}
}

// BasketReplace swaps the basket contents for the submitted lines.
func BasketReplace(svc *basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := basketIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload replaceBasketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]basketsvc.AddItemInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			inputs = append(inputs, basketsvc.AddItemInput{
				ProductID: line.ProductID,
				Size:      line.Size,
				Color:     line.Color,
				Quantity:  line.Quantity,
			})
		}

		b, err := svc.Replace(r.Context(), id, inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(b))
	}
}

// BasketAddLine adds units of a SKU on top of any existing quantity.
func BasketAddLine(svc *basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := basketIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload basketLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		b, err := svc.AddItem(r.Context(), id, basketsvc.AddItemInput{
			ProductID: payload.ProductID,
			Size:      payload.Size,
			Color:     payload.Color,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(b))
	}
}

// BasketUpdateLine sets the absolute quantity for a SKU; zero removes it.
func BasketUpdateLine(svc *basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := basketIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBasketLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		b, err := svc.UpdateItem(r.Context(), id, basketsvc.UpdateItemInput{
			ProductID: payload.ProductID,
			Size:      payload.Size,
			Color:     payload.Color,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(b))
	}
}

// BasketClear empties the basket.
func BasketClear(svc *basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := basketIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBasketResponse(&basketsvc.Basket{}))
	}
}
