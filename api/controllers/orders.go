package controllers

import (
	"net/http"
	"strings"

	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/api/validators"
	orderssvc "github.com/hmoralesdev/retailpoint-backend/internal/orders"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
)

type setOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type setOrderPaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
	PaymentType   string `json:"payment_type" validate:"required"`
}

// OrderList returns orders. Customers only see their own; staff and
// admin see everything, optionally filtered by status.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orderssvc.ListInput{Page: page}
		if !staffOrAdmin(middleware.RoleFromContext(r.Context())) {
			userID := middleware.UserIDFromContext(r.Context())
			input.UserID = &userID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			input.Status = &status
		}

		orders, pageInfo, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders, "page": pageInfo})
	}
}

// OrderDetail returns one order with its line items. Customers are
// scoped to their own orders.
func OrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if staffOrAdmin(middleware.RoleFromContext(r.Context())) {
			order, err := svc.Get(r.Context(), orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, order)
			return
		}

		order, err := svc.GetForUser(r.Context(), orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderSetStatus drives the status machine. Role policy is enforced by
// the service so the table stays in one place.
func OrderSetStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, parseErr := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if parseErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
			return
		}

		if err := svc.SetStatus(r.Context(), orderID, status, middleware.RoleFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// OrderSetPayment marks the order paid (e.g. cash handed over at pickup).
func OrderSetPayment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setOrderPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentStatus, parseErr := enums.ParsePaymentStatus(strings.TrimSpace(payload.PaymentStatus))
		if parseErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status"))
			return
		}
		paymentType, parseErr := enums.ParsePaymentType(strings.TrimSpace(payload.PaymentType))
		if parseErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment type"))
			return
		}

		if err := svc.SetPaymentStatus(r.Context(), orderID, paymentStatus, paymentType); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
