package controllers

import (
	"net/http"

	"github.com/muraqqa/storefront/api/responses"
	"github.com/muraqqa/storefront/internal/payments"
)

// PaymentsConfig exposes the publishable card payment settings.
func PaymentsConfig(svc payments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteSuccess(w, payments.Config{})
			return
		}
		responses.WriteSuccess(w, svc.GetConfig())
	}
}
