package stockrequests

import (
	"context"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

// ListFilter narrows restock request listings.
type ListFilter struct {
	StaffID *int64
	Status  *enums.StockRequestStatus
	Page    pagination.Params
}

// Repository persists restock requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.StockRequest) (*models.StockRequest, error)
	UpdateStatus(ctx context.Context, id int64, status enums.StockRequestStatus) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.StockRequest, error)
	List(ctx context.Context, filter ListFilter) ([]models.StockRequest, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock request repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.StockRequest) (*models.StockRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status enums.StockRequestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.StockRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.StockRequest{}, id).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.StockRequest, error) {
	var request models.StockRequest
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Supplier").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.StockRequest, int64, error) {
	page := pagination.Normalize(filter.Page)

	query := r.db.WithContext(ctx).Model(&models.StockRequest{})
	if filter.StaffID != nil {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.StockRequest
	err := query.
		Preload("Product").
		Preload("Supplier").
		Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
