package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
)

// SupplierRepository persists restock suppliers.
type SupplierRepository interface {
	WithTx(tx *gorm.DB) SupplierRepository
	Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Supplier, error)
	List(ctx context.Context) ([]models.Supplier, error)
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository builds a supplier repository bound to the provided DB.
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) WithTx(tx *gorm.DB) SupplierRepository {
	if tx == nil {
		return r
	}
	return &supplierRepository{db: tx}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Supplier{}, id).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
