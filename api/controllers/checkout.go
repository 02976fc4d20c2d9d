package controllers

import (
	"net/http"
	"strings"

	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/api/validators"
	checkoutsvc "github.com/hmoralesdev/retailpoint-backend/internal/checkout"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
)

type checkoutRequest struct {
	CartItemIDs []int64 `json:"cart_item_ids,omitempty" validate:"omitempty,dive,min=1"`
	PaymentType *string `json:"payment_type,omitempty"`
}

// Checkout materializes the caller's cart into a pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentType, err := parseOptionalPaymentType(payload.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Materialize(r.Context(), checkoutsvc.MaterializeInput{
			UserID:      middleware.UserIDFromContext(r.Context()),
			CartItemIDs: payload.CartItemIDs,
			PaymentType: paymentType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func parseOptionalPaymentType(raw *string) (enums.PaymentType, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return "", nil
	}
	paymentType, err := enums.ParsePaymentType(strings.TrimSpace(*raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type")
	}
	return paymentType, nil
}
