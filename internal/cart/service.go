package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
)

// MaxLineQuantity caps how many units a single cart line may hold.
const MaxLineQuantity = 999

// Line is a cart row joined with its product snapshot for display.
type Line struct {
	CartItemID    int64           `json:"cart_item_id"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StockQuantity int             `json:"stock_quantity"`
}

// Summary is the full cart view returned to clients.
type Summary struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Service manages a user's cart lines.
type Service interface {
	Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error
	Remove(ctx context.Context, userID, cartItemID int64) error
	List(ctx context.Context, userID int64) (*Summary, error)
	Count(ctx context.Context, userID int64) (int64, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService builds the cart service.
func NewService(repo Repository, productRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo, products: productRepo}, nil
}

func (s *service) Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 || quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if existing != nil {
		merged := existing.Quantity + quantity
		if merged > MaxLineQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
		}
		if err := s.repo.UpdateQuantity(ctx, existing.ID, merged); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		existing.Quantity = merged
		return existing, nil
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}
	return created, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}
	item, err := s.findOwned(ctx, userID, cartItemID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, cartItemID int64) error {
	item, err := s.findOwned(ctx, userID, cartItemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID int64) (*Summary, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}

	summary := &Summary{Lines: make([]Line, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		subtotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		summary.Lines = append(summary.Lines, Line{
			CartItemID:    item.ID,
			ProductID:     item.ProductID,
			Name:          item.Product.Name,
			UnitPrice:     item.Product.Price,
			Quantity:      item.Quantity,
			Subtotal:      subtotal,
			StockQuantity: item.Product.StockQuantity,
		})
		summary.Total = summary.Total.Add(subtotal)
	}
	summary.Total = summary.Total.Round(2)
	return summary, nil
}

func (s *service) Count(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}
	return count, nil
}

func (s *service) findOwned(ctx context.Context, userID, cartItemID int64) (*models.CartItem, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if cartItemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required")
	}
	item, err := s.repo.FindByIDAndUser(ctx, cartItemID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return item, nil
}
