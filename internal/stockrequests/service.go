package stockrequests

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

// FileInput carries the fields staff submit when requesting a restock.
type FileInput struct {
	StaffID           int64
	ProductID         int64
	SupplierID        *int64
	RequestedQuantity int
	Reason            *string
}

// Service manages the restock request workflow: staff file requests,
// admins review them.
type Service interface {
	File(ctx context.Context, input FileInput) (*models.StockRequest, error)
	Get(ctx context.Context, id int64) (*models.StockRequest, error)
	List(ctx context.Context, filter ListFilter) ([]models.StockRequest, pagination.Page, error)
	Approve(ctx context.Context, id int64) (*models.StockRequest, error)
	Reject(ctx context.Context, id int64) (*models.StockRequest, error)
	Delete(ctx context.Context, id int64) error
}

type productLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
}

type service struct {
	repo        Repository
	productRepo productLoader
}

// NewService builds the stock request service.
func NewService(repo Repository, productRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock request repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

func (s *service) File(ctx context.Context, input FileInput) (*models.StockRequest, error) {
	if input.StaffID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity missing")
	}
	if input.ProductID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.RequestedQuantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity must be at least 1")
	}

	if _, err := s.productRepo.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	request := &models.StockRequest{
		StaffID:           input.StaffID,
		ProductID:         input.ProductID,
		SupplierID:        input.SupplierID,
		RequestedQuantity: input.RequestedQuantity,
		Reason:            input.Reason,
		Status:            enums.StockRequestStatusPending,
	}
	created, err := s.repo.Create(ctx, request)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock request")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.StockRequest, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock request id required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock request")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.StockRequest, pagination.Page, error) {
	filter.Page = pagination.Normalize(filter.Page)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock requests")
	}
	return items, pagination.Page{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Total: total}, nil
}

func (s *service) Approve(ctx context.Context, id int64) (*models.StockRequest, error) {
	return s.review(ctx, id, enums.StockRequestStatusApproved)
}

func (s *service) Reject(ctx context.Context, id int64) (*models.StockRequest, error) {
	return s.review(ctx, id, enums.StockRequestStatusRejected)
}

// review settles a request. Only pending requests can be settled.
func (s *service) review(ctx context.Context, id int64, status enums.StockRequestStatus) (*models.StockRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.StockRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "stock request already settled")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock request")
	}
	request.Status = status
	return request, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock request")
	}
	return nil
}
