package products

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

// ListFilter narrows product listings.
type ListFilter struct {
	CategoryID *int64
	Status     *enums.ProductStatus
	Search     string
	MaxStock   *int
	Page       pagination.Params
}

// Repository exposes product persistence, including the stock mutation
// helpers used by checkout and cancellation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)

	// LockForUpdate loads a product row under a row lock. Callers must
	// hold an open transaction and lock rows in ascending id order.
	LockForUpdate(ctx context.Context, id int64) (*models.Product, error)
	// DeductStock atomically subtracts qty, guarded so the committed
	// quantity can never go negative. Returns false when stock is short.
	DeductStock(ctx context.Context, id int64, qty int) (bool, error)
	// RestoreStock adds qty back to the product row.
	RestoreStock(ctx context.Context, id int64, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Supplier").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	page := pagination.Normalize(filter.Page)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	if filter.MaxStock != nil {
		query = query.Where("stock_quantity <= ?", *filter.MaxStock)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Product
	err := query.
		Preload("Category").
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) LockForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	// SQLite serializes writers at the transaction level, so the lock
	// clause is only issued where the dialect supports it.
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := query.Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) DeductStock(ctx context.Context, id int64, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) RestoreStock(ctx context.Context, id int64, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
}
