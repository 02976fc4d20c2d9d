package controllers

import (
	"net/http"
	"strings"

	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/api/validators"
	stocksvc "github.com/hmoralesdev/retailpoint-backend/internal/stockrequests"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
)

type fileStockRequestRequest struct {
	ProductID         int64   `json:"product_id" validate:"required,min=1"`
	SupplierID        *int64  `json:"supplier_id,omitempty" validate:"omitempty,min=1"`
	RequestedQuantity int     `json:"requested_quantity" validate:"required,min=1"`
	Reason            *string `json:"reason,omitempty"`
}

// StockRequestFile lets staff flag a product for restocking.
func StockRequestFile(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload fileStockRequestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.File(r.Context(), stocksvc.FileInput{
			StaffID:           middleware.UserIDFromContext(r.Context()),
			ProductID:         payload.ProductID,
			SupplierID:        payload.SupplierID,
			RequestedQuantity: payload.RequestedQuantity,
			Reason:            payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// StockRequestList returns restock requests, optionally filtered by status.
func StockRequestList(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := stocksvc.ListFilter{Page: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseStockRequestStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		// Staff only see their own filings; admins review everything.
		if middleware.RoleFromContext(r.Context()) != enums.RoleAdmin {
			staffID := middleware.UserIDFromContext(r.Context())
			filter.StaffID = &staffID
		}

		requests, pageInfo, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"stock_requests": requests, "page": pageInfo})
	}
}

// StockRequestApprove settles a pending request as approved.
func StockRequestApprove(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.Approve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// StockRequestReject settles a pending request as rejected.
func StockRequestReject(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.Reject(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// StockRequestDelete removes a request from the queue.
func StockRequestDelete(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
