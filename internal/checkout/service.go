package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/cart"
	"github.com/hmoralesdev/retailpoint-backend/internal/orders"
	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MaterializeInput captures a customer checkout request. CartItemIDs may
// name a subset of the cart; empty means the whole cart.
type MaterializeInput struct {
	UserID      int64
	CartItemIDs []int64
	PaymentType enums.PaymentType
}

// POSLine is one product scanned at the counter.
type POSLine struct {
	ProductID int64
	Quantity  int
}

// POSInput captures a staff counter sale.
type POSInput struct {
	StaffID     int64
	Lines       []POSLine
	PaymentType enums.PaymentType
}

// MaterializeResult reports the order produced by a checkout.
type MaterializeResult struct {
	OrderID         int64           `json:"order_id"`
	TransactionCode string          `json:"transaction_code"`
	Total           decimal.Decimal `json:"total"`
}

// Service converts carts (or POS lines) into orders, deducting stock
// atomically inside a single transaction.
type Service interface {
	Materialize(ctx context.Context, input MaterializeInput) (*MaterializeResult, error)
	MaterializePOS(ctx context.Context, input POSInput) (*MaterializeResult, error)
}

type service struct {
	tx          txRunner
	cartRepo    cart.Repository
	ordersRepo  orders.Repository
	productRepo products.Repository
}

// NewService builds the checkout service.
func NewService(tx txRunner, cartRepo cart.Repository, ordersRepo orders.Repository, productRepo products.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		productRepo: productRepo,
	}, nil
}

// line is a quantity keyed by product, resolved before the transaction.
type line struct {
	productID  int64
	quantity   int
	cartItemID int64
}

func (s *service) Materialize(ctx context.Context, input MaterializeInput) (*MaterializeResult, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = enums.PaymentTypePayAtStore
	}
	if !paymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}

	var result *MaterializeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		var items []models.CartItem
		var err error
		if len(input.CartItemIDs) > 0 {
			items, err = cartRepo.FindByIDs(ctx, input.UserID, input.CartItemIDs)
		} else {
			items, err = cartRepo.FindByUser(ctx, input.UserID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if len(input.CartItemIDs) > 0 && len(items) != len(input.CartItemIDs) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart selection contains unknown items")
		}

		lines := make([]line, 0, len(items))
		consumed := make([]int64, 0, len(items))
		for _, item := range items {
			lines = append(lines, line{
				productID:  item.ProductID,
				quantity:   item.Quantity,
				cartItemID: item.ID,
			})
			consumed = append(consumed, item.ID)
		}

		header := &models.Order{
			UserID:        &input.UserID,
			PaymentType:   paymentType,
			PaymentStatus: enums.PaymentStatusUnpaid,
			OrderStatus:   enums.OrderStatusPending,
		}
		created, err := s.materializeLines(ctx, tx, header, StoreCodePrefix, lines)
		if err != nil {
			return err
		}

		// Only the consumed lines leave the cart; an unselected line
		// survives checkout untouched.
		if err := cartRepo.DeleteByIDs(ctx, input.UserID, consumed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) MaterializePOS(ctx context.Context, input POSInput) (*MaterializeResult, error) {
	if input.StaffID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = enums.PaymentTypeCash
	}
	if !paymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}

	merged := map[int64]int{}
	for _, l := range input.Lines {
		if l.ProductID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if l.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
		}
		merged[l.ProductID] += l.Quantity
	}
	lines := make([]line, 0, len(merged))
	for productID, qty := range merged {
		lines = append(lines, line{productID: productID, quantity: qty})
	}

	var result *MaterializeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		header := &models.Order{
			StaffID:       &input.StaffID,
			PaymentType:   paymentType,
			PaymentStatus: enums.PaymentStatusPaid,
			OrderStatus:   enums.OrderStatusCompleted,
		}
		created, err := s.materializeLines(ctx, tx, header, POSCodePrefix, lines)
		if err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// materializeLines runs the shared deduction path: rows locked in
// ascending product id order, stock checked and decremented per line,
// order items snapshotting the post-lock price. Any shortfall aborts the
// whole transaction.
func (s *service) materializeLines(ctx context.Context, tx *gorm.DB, header *models.Order, codePrefix string, lines []line) (*MaterializeResult, error) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].productID < lines[j].productID })

	productRepo := s.productRepo.WithTx(tx)
	ordersRepo := s.ordersRepo.WithTx(tx)

	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		product, err := productRepo.LockForUpdate(ctx, l.productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": l.productID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product row")
		}
		if product.StockQuantity < l.quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": l.productID})
		}
		deducted, err := productRepo.DeductStock(ctx, l.productID, l.quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct stock")
		}
		if !deducted {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": l.productID})
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(l.quantity)))
		total = total.Add(subtotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:    l.productID,
			Quantity:     l.quantity,
			PriceAtOrder: product.Price,
		})
	}

	code, err := NewTransactionCode(codePrefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate transaction code")
	}

	header.TransactionCode = code
	header.TotalAmount = total.Round(2)
	created, err := ordersRepo.Create(ctx, header)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	for i := range orderItems {
		orderItems[i].OrderID = created.ID
	}
	if err := ordersRepo.CreateItems(ctx, orderItems); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}

	return &MaterializeResult{
		OrderID:         created.ID,
		TransactionCode: created.TransactionCode,
		Total:           created.TotalAmount,
	}, nil
}
