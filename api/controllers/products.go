package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	"github.com/hmoralesdev/retailpoint-backend/api/responses"
	"github.com/hmoralesdev/retailpoint-backend/api/validators"
	productsvc "github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
)

type createProductRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	SKU           *string `json:"sku,omitempty"`
	Brand         *string `json:"brand,omitempty"`
	CategoryID    int64   `json:"category_id" validate:"required,min=1"`
	SupplierID    *int64  `json:"supplier_id,omitempty" validate:"omitempty,min=1"`
	Price         string  `json:"price" validate:"required"`
	StockQuantity int     `json:"stock_quantity" validate:"min=0"`
	ImageURL      *string `json:"image_url,omitempty"`
	Status        *string `json:"status,omitempty"`
}

type updateProductRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	SKU           *string `json:"sku,omitempty"`
	Brand         *string `json:"brand,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty" validate:"omitempty,min=1"`
	SupplierID    *int64  `json:"supplier_id,omitempty" validate:"omitempty,min=1"`
	Price         *string `json:"price,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	ImageURL      *string `json:"image_url,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// staffOrAdmin reports whether the actor may see hidden products.
func staffOrAdmin(role enums.Role) bool {
	return role == enums.RoleStaff || role == enums.RoleAdmin
}

// ProductList returns the catalog. Hidden products only appear for
// staff and admin actors.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.ListInput{
			Search:        strings.TrimSpace(r.URL.Query().Get("search")),
			IncludeHidden: staffOrAdmin(middleware.RoleFromContext(r.Context())),
			Page:          page,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, parseErr := validators.ParseQueryInt(r, "category_id", 0, 1, 1<<30)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			id := int64(categoryID)
			input.CategoryID = &id
		}

		products, pageInfo, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products, "page": pageInfo})
	}
}

// ProductDetail returns a single product.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id, staffOrAdmin(middleware.RoleFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductLowStock lists products at or below the restock threshold.
func ProductLowStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, pageInfo, err := svc.List(r.Context(), productsvc.ListInput{
			IncludeHidden: true,
			LowStockOnly:  true,
			Page:          page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products, "page": pageInfo})
	}
}

// ProductCreate adds a catalog entry.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}
		status, err := parseOptionalProductStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), productsvc.CreateInput{
			Name:          strings.TrimSpace(payload.Name),
			SKU:           payload.SKU,
			Brand:         payload.Brand,
			CategoryID:    payload.CategoryID,
			SupplierID:    payload.SupplierID,
			Price:         price,
			StockQuantity: payload.StockQuantity,
			ImageURL:      payload.ImageURL,
			Status:        status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate patches a catalog entry.
func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateInput{
			Name:          payload.Name,
			SKU:           payload.SKU,
			Brand:         payload.Brand,
			CategoryID:    payload.CategoryID,
			SupplierID:    payload.SupplierID,
			StockQuantity: payload.StockQuantity,
			ImageURL:      payload.ImageURL,
		}
		if payload.Price != nil {
			price, parseErr := decimal.NewFromString(*payload.Price)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid price"))
				return
			}
			input.Price = &price
		}
		if payload.Status != nil {
			status, parseErr := enums.ParseProductStatus(strings.TrimSpace(*payload.Status))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			input.Status = &status
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductDelete removes a catalog entry.
func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "productID")
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

func parseOptionalProductStatus(raw *string) (enums.ProductStatus, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return "", nil
	}
	status, err := enums.ParseProductStatus(strings.TrimSpace(*raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return status, nil
}
