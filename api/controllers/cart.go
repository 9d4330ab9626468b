package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/api/middleware"
	"github.com/muraqqa/storefront/api/responses"
	"github.com/muraqqa/storefront/api/validators"
	cartsvc "github.com/muraqqa/storefront/internal/cart"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
)

const maxUnitReferenceLen = 64

type cartResponse struct {
	Lines     []cartsvc.Line `json:"lines"`
	ItemCount int            `json:"itemCount"`
	Subtotal  int64          `json:"subtotal"`
}

func newCartResponse(agg *cartsvc.Aggregate) cartResponse {
	lines := agg.Lines()
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return cartResponse{Lines: lines, ItemCount: count, Subtotal: agg.Subtotal()}
}

// CartFetch returns the shopper's cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireShopper(w, r, svc != nil, logg)
		if !ok {
			return
		}
		agg, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(agg))
	}
}

// CartAddLine merges a catalog entry into the cart.
func CartAddLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireShopper(w, r, svc != nil, logg)
		if !ok {
			return
		}

		var payload cartsvc.AddLineInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.UnitReference = validators.SanitizeString(payload.UnitReference, maxUnitReferenceLen)

		agg, err := svc.AddLine(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(agg))
	}
}

type setQuantityRequest struct {
	UnitReference string `json:"unitReference" validate:"max=64"`
	Quantity      int    `json:"quantity" validate:"required,min=1,max=99"`
}

// CartSetQuantity replaces the quantity of one line.
func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireShopper(w, r, svc != nil, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agg, err := svc.SetQuantity(r.Context(), userID, productID, validators.SanitizeString(payload.UnitReference, maxUnitReferenceLen), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(agg))
	}
}

// CartRemoveLine drops a line; removing an absent line is not an error.
func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireShopper(w, r, svc != nil, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitRef := validators.SanitizeString(r.URL.Query().Get("unitReference"), maxUnitReferenceLen)
		agg, err := svc.RemoveLine(r.Context(), userID, productID, unitRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(agg))
	}
}

// CartClear empties the cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireShopper(w, r, svc != nil, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func requireShopper(w http.ResponseWriter, r *http.Request, available bool, logg *logger.Logger) (uuid.UUID, bool) {
	if !available {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "service unavailable"))
		return uuid.Nil, false
	}
	userID, ok := middleware.ShopperID(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopper identity missing"))
		return uuid.Nil, false
	}
	return userID, true
}
