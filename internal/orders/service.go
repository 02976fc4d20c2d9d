package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
	"github.com/hmoralesdev/retailpoint-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// staffStatuses is the forward subset a staff account may drive.
// Completion and cancellation stay with admins; customers drive no
// transitions at all.
var staffStatuses = map[enums.OrderStatus]bool{
	enums.OrderStatusProcessing:     true,
	enums.OrderStatusReadyForPickup: true,
}

// ListInput captures order listing parameters from controllers.
type ListInput struct {
	UserID *int64
	Status *enums.OrderStatus
	Page   pagination.Params
}

// Service drives the order status machine and order reads.
type Service interface {
	SetStatus(ctx context.Context, orderID int64, next enums.OrderStatus, actorRole enums.Role) error
	SetPaymentStatus(ctx context.Context, orderID int64, status enums.PaymentStatus, paymentType enums.PaymentType) error
	Get(ctx context.Context, orderID int64) (*models.Order, error)
	GetForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
	List(ctx context.Context, input ListInput) ([]models.Order, pagination.Page, error)
}

type service struct {
	repo        Repository
	productRepo products.Repository
	tx          txRunner
}

// NewService builds the orders service.
func NewService(repo Repository, productRepo products.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, productRepo: productRepo, tx: tx}, nil
}

// CanTransitionRole reports whether the actor role may drive a transition
// to the given status. The transition table itself is checked separately.
func CanTransitionRole(role enums.Role, next enums.OrderStatus) bool {
	switch role {
	case enums.RoleAdmin:
		return true
	case enums.RoleStaff:
		return staffStatuses[next]
	default:
		return false
	}
}

func (s *service) SetStatus(ctx context.Context, orderID int64, next enums.OrderStatus, actorRole enums.Role) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if next == enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "orders cannot return to pending")
	}
	if !CanTransitionRole(actorRole, next) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot drive this transition")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if next == enums.OrderStatusCancelled && order.OrderStatus == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
		}
		if !order.OrderStatus.CanTransition(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.OrderStatus, next))
		}

		if next == enums.OrderStatusCancelled {
			if err := s.restoreStock(ctx, tx, repo, order.ID); err != nil {
				return err
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
}

// restoreStock returns every deducted line quantity to inventory. Rows
// are locked in ascending product id order, mirroring checkout.
func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, repo Repository, orderID int64) error {
	items, err := repo.FindItems(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	productRepo := s.productRepo.WithTx(tx)
	for _, item := range items {
		if _, err := productRepo.LockForUpdate(ctx, item.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product row")
		}
		if err := productRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

func (s *service) SetPaymentStatus(ctx context.Context, orderID int64, status enums.PaymentStatus, paymentType enums.PaymentType) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if !paymentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.OrderStatus == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be paid")
		}

		if err := repo.UpdatePayment(ctx, orderID, status, paymentType); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Order, pagination.Page, error) {
	page := pagination.Normalize(input.Page)
	items, total, err := s.repo.List(ctx, ListFilter{
		UserID: input.UserID,
		Status: input.Status,
		Page:   page,
	})
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return items, pagination.Page{Limit: page.Limit, Offset: page.Offset, Total: total}, nil
}
