package controllers

import (
	"net/http"

	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/api/validators"
	checkoutsvc "github.com/hmoralesdev/retailpoint-backend/internal/checkout"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
)

type posLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type posCheckoutRequest struct {
	Lines       []posLineRequest `json:"lines" validate:"required,min=1,dive"`
	PaymentType *string          `json:"payment_type,omitempty"`
}

// POSCheckout rings up a counter sale. The order is created already
// paid and completed; stock is deducted through the same locked path
// as online checkout.
func POSCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload posCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentType, err := parseOptionalPaymentType(payload.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]checkoutsvc.POSLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, checkoutsvc.POSLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}

		result, err := svc.MaterializePOS(r.Context(), checkoutsvc.POSInput{
			StaffID:     middleware.UserIDFromContext(r.Context()),
			Lines:       lines,
			PaymentType: paymentType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
