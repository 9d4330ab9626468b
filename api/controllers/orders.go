package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/api/middleware"
	"github.com/muraqqa/storefront/api/responses"
	"github.com/muraqqa/storefront/api/validators"
	"github.com/muraqqa/storefront/internal/orders"
	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
)

// OrderReader loads order read models.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*orders.Detail, error)
}

// OrderStatusUpdater applies admin status changes.
type OrderStatusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, trackingRef *string) (*orders.Detail, error)
}

// OrderDetail returns one of the shopper's orders. Orders of other shoppers
// are reported as missing.
func OrderDetail(svc OrderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireShopper(w, r, svc != nil, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if detail.UserID != userID && middleware.RoleFromContext(r.Context()) != string(enums.UserRoleAdmin) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type orderStatusRequest struct {
	Status      string  `json:"status" validate:"required,oneof=paid shipped delivered canceled"`
	TrackingRef *string `json:"trackingRef" validate:"omitempty,max=120"`
}

// AdminOrderStatus moves an order through fulfilment.
func AdminOrderStatus(svc OrderStatusUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		detail, err := svc.UpdateStatus(ctx, orderID, status, payload.TrackingRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
