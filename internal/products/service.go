package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

// DefaultLowStockThreshold flags products needing a restock request.
const DefaultLowStockThreshold = 10

// ListInput captures catalog listing parameters from controllers.
type ListInput struct {
	CategoryID    *int64
	Search        string
	IncludeHidden bool
	LowStockOnly  bool
	Page          pagination.Params
}

// CreateInput carries the fields accepted when adding a product.
type CreateInput struct {
	Name          string
	SKU           *string
	Brand         *string
	CategoryID    int64
	SupplierID    *int64
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      *string
	Status        enums.ProductStatus
}

// UpdateInput carries the mutable product fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Name          *string
	SKU           *string
	Brand         *string
	CategoryID    *int64
	SupplierID    *int64
	Price         *decimal.Decimal
	StockQuantity *int
	ImageURL      *string
	Status        *enums.ProductStatus
}

// Service exposes catalog management plus category and supplier CRUD.
type Service interface {
	List(ctx context.Context, input ListInput) ([]models.Product, pagination.Page, error)
	Get(ctx context.Context, id int64, includeHidden bool) (*models.Product, error)
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, description *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, input SupplierInput) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
}

// SupplierInput carries the supplier contact fields.
type SupplierInput struct {
	Name         string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
}

type service struct {
	repo         Repository
	categoryRepo CategoryRepository
	supplierRepo SupplierRepository
}

// NewService builds the catalog service.
func NewService(repo Repository, categoryRepo CategoryRepository, supplierRepo SupplierRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if supplierRepo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{
		repo:         repo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Product, pagination.Page, error) {
	filter := ListFilter{
		CategoryID: input.CategoryID,
		Search:     input.Search,
		Page:       pagination.Normalize(input.Page),
	}
	if !input.IncludeHidden {
		active := enums.ProductStatusActive
		filter.Status = &active
	}
	if input.LowStockOnly {
		threshold := DefaultLowStockThreshold
		filter.MaxStock = &threshold
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := pagination.Page{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Total: total}
	return items, page, nil
}

func (s *service) Get(ctx context.Context, id int64, includeHidden bool) (*models.Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !includeHidden && product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.CategoryID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	status := input.Status
	if status == "" {
		status = enums.ProductStatusActive
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}

	product := &models.Product{
		Name:          input.Name,
		SKU:           input.SKU,
		Brand:         input.Brand,
		CategoryID:    input.CategoryID,
		SupplierID:    input.SupplierID,
		Price:         input.Price.Round(2),
		StockQuantity: input.StockQuantity,
		ImageURL:      input.ImageURL,
		Status:        status,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Product, error) {
	product, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		product.Name = *input.Name
	}
	if input.SKU != nil {
		product.SKU = input.SKU
	}
	if input.Brand != nil {
		product.Brand = input.Brand
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		product.CategoryID = *input.CategoryID
	}
	if input.SupplierID != nil {
		product.SupplierID = input.SupplierID
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = input.Price.Round(2)
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		product.Status = *input.Status
	}

	product.Category = nil
	product.Supplier = nil
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id, true); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	out, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if _, err := s.categoryRepo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}

	created, err := s.categoryRepo.Create(ctx, &models.Category{Name: name, Description: description})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return created, nil
}

func (s *service) UpdateCategory(ctx context.Context, id int64, name string, description *string) (*models.Category, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if existing, err := s.categoryRepo.FindByName(ctx, name); err == nil && existing.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}

	category.Name = name
	category.Description = description
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	out, err := s.supplierRepo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return out, nil
}

func (s *service) CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	created, err := s.supplierRepo.Create(ctx, &models.Supplier{
		Name:         input.Name,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return created, nil
}

func (s *service) UpdateSupplier(ctx context.Context, id int64, input SupplierInput) (*models.Supplier, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	supplier.Name = input.Name
	supplier.ContactName = input.ContactName
	supplier.ContactEmail = input.ContactEmail
	supplier.ContactPhone = input.ContactPhone
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return supplier, nil
}

func (s *service) DeleteSupplier(ctx context.Context, id int64) error {
	if _, err := s.supplierRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	return nil
}
