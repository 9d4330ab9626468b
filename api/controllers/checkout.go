package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/api/responses"
	"github.com/muraqqa/storefront/api/validators"
	checkoutsvc "github.com/muraqqa/storefront/internal/checkout"
	pkgcheckout "github.com/muraqqa/storefront/pkg/checkout"
	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
)

// SessionRegistry hands out checkout sessions.
type SessionRegistry interface {
	Begin(ctx context.Context) *checkoutsvc.Session
	Get(id uuid.UUID) (*checkoutsvc.Session, error)
}

// CheckoutBegin opens a new session at the cart step.
func CheckoutBegin(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		session := registry.Begin(r.Context())
		responses.WriteSuccessStatus(w, http.StatusCreated, session.Snapshot())
	}
}

// CheckoutSnapshot returns the current session state.
func CheckoutSnapshot(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return withSession(registry, logg, func(w http.ResponseWriter, r *http.Request, session *checkoutsvc.Session) {
		responses.WriteSuccess(w, session.Snapshot())
	})
}

// CheckoutProceed moves from cart to shipping. Anonymous shoppers receive
// AUTH_REQUIRED with the login redirect.
func CheckoutProceed(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return sessionAction(registry, logg, func(ctx context.Context, session *checkoutsvc.Session) error {
		return session.Proceed(ctx)
	})
}

type shippingRequest struct {
	FullName      string `json:"fullName" validate:"max=200"`
	Phone         string `json:"phone" validate:"max=64"`
	Address       string `json:"address" validate:"max=500"`
	City          string `json:"city" validate:"max=200"`
	PostalCode    string `json:"postalCode" validate:"max=64"`
	Country       string `json:"country" validate:"max=120"`
	RateID        string `json:"rateId" validate:"max=64"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=card bank_transfer"`
	PromoCode     string `json:"promoCode" validate:"max=32"`
}

// CheckoutUpdateShipping stores the shipping form. Field rules are enforced
// on submit so a partially filled form can be saved.
func CheckoutUpdateShipping(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return withSession(registry, logg, func(w http.ResponseWriter, r *http.Request, session *checkoutsvc.Session) {
		var payload shippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err := session.UpdateShipping(r.Context(), checkoutsvc.ShippingInput{
			Details: pkgcheckout.ShippingDetails{
				FullName:   payload.FullName,
				Phone:      payload.Phone,
				Address:    payload.Address,
				City:       payload.City,
				PostalCode: payload.PostalCode,
				Country:    payload.Country,
			},
			RateID:        payload.RateID,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			PromoCode:     payload.PromoCode,
		})
		if err != nil {
			writeSessionError(r.Context(), logg, w, session, err)
			return
		}
		responses.WriteSuccess(w, session.Snapshot())
	})
}

// CheckoutShippingRates quotes shipping for the entered country.
func CheckoutShippingRates(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return withSession(registry, logg, func(w http.ResponseWriter, r *http.Request, session *checkoutsvc.Session) {
		rates, err := session.QuoteRates(r.Context())
		if err != nil {
			writeSessionError(r.Context(), logg, w, session, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"rates": rates})
	})
}

// CheckoutSubmit validates the shipping step and creates the order.
func CheckoutSubmit(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return sessionAction(registry, logg, func(ctx context.Context, session *checkoutsvc.Session) error {
		return session.SubmitShipping(ctx)
	})
}

type paymentIntentResponse struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

// CheckoutPaymentIntent prepares the card payment for the pending order.
func CheckoutPaymentIntent(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return withSession(registry, logg, func(w http.ResponseWriter, r *http.Request, session *checkoutsvc.Session) {
		intent, err := session.CreatePaymentIntent(r.Context())
		if err != nil {
			writeSessionError(r.Context(), logg, w, session, err)
			return
		}
		responses.WriteSuccess(w, paymentIntentResponse{IntentID: intent.ID, ClientSecret: intent.ClientSecret})
	})
}

type confirmRequest struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage" validate:"max=500"`
	IntentID     string `json:"intentId" validate:"max=255"`
}

// CheckoutConfirm applies the card confirmation result.
func CheckoutConfirm(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return withSession(registry, logg, func(w http.ResponseWriter, r *http.Request, session *checkoutsvc.Session) {
		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err := session.ConfirmPayment(r.Context(), checkoutsvc.PaymentResult{
			Success:      payload.Success,
			ErrorMessage: payload.ErrorMessage,
			IntentID:     payload.IntentID,
		})
		if err != nil {
			writeSessionError(r.Context(), logg, w, session, err)
			return
		}
		responses.WriteSuccess(w, session.Snapshot())
	})
}

// CheckoutBack returns to the previous step.
func CheckoutBack(registry SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return sessionAction(registry, logg, func(ctx context.Context, session *checkoutsvc.Session) error {
		return session.Back(ctx)
	})
}

func sessionAction(registry SessionRegistry, logg *logger.Logger, action func(context.Context, *checkoutsvc.Session) error) http.HandlerFunc {
	return withSession(registry, logg, func(w http.ResponseWriter, r *http.Request, session *checkoutsvc.Session) {
		if err := action(r.Context(), session); err != nil {
			writeSessionError(r.Context(), logg, w, session, err)
			return
		}
		responses.WriteSuccess(w, session.Snapshot())
	})
}

func withSession(registry SessionRegistry, logg *logger.Logger, next func(http.ResponseWriter, *http.Request, *checkoutsvc.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := registry.Get(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, id.String())
		}
		next(w, r.WithContext(ctx), session)
	}
}

// writeSessionError surfaces the shopper-facing message of a blocking
// provider failure alongside the error code.
func writeSessionError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, session *checkoutsvc.Session, err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		if message := session.Err(); message != "" {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, message).WithDetails(map[string]any{
				"error": message,
				"step":  session.Step(),
			})
		}
	}
	responses.WriteError(ctx, logg, w, err)
}
