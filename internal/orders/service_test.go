package orders_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/orders"
	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
)

type txRunner struct {
	db *gorm.DB
}

func (r txRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Supplier{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newService(t *testing.T, db *gorm.DB) orders.Service {
	t.Helper()
	svc, err := orders.NewService(orders.NewRepository(db), products.NewRepository(db), txRunner{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	category := models.Category{Name: "Pantry " + uuid.NewString()}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	product := models.Product{
		Name:          "Product " + uuid.NewString(),
		CategoryID:    category.ID,
		Price:         decimal.RequireFromString("3.50"),
		StockQuantity: stock,
		Status:        enums.ProductStatusActive,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &product
}

func seedOrder(t *testing.T, db *gorm.DB, userID int64, status enums.OrderStatus, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := models.Order{
		UserID:          &userID,
		TransactionCode: "STORE-" + uuid.NewString()[:8],
		PaymentType:     enums.PaymentTypePayAtStore,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		OrderStatus:     status,
		TotalAmount:     decimal.RequireFromString("3.50"),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			t.Fatalf("seed order items: %v", err)
		}
	}
	return &order
}

func orderStatus(t *testing.T, db *gorm.DB, id int64) enums.OrderStatus {
	t.Helper()
	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return order.OrderStatus
}

func TestSetStatusWalksForwardPath(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	order := seedOrder(t, db, 1, enums.OrderStatusPending)

	// Staff prepare the order; completion is an admin step.
	for _, next := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusReadyForPickup,
	} {
		if err := svc.SetStatus(context.Background(), order.ID, next, enums.RoleStaff); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if got := orderStatus(t, db, order.ID); got != next {
			t.Fatalf("expected %s got %s", next, got)
		}
	}

	if err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCompleted, enums.RoleAdmin); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := orderStatus(t, db, order.ID); got != enums.OrderStatusCompleted {
		t.Fatalf("expected completed got %s", got)
	}
}

func TestSetStatusRejectsInvalidTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	cases := []struct {
		name string
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{name: "skip processing", from: enums.OrderStatusPending, to: enums.OrderStatusCompleted},
		{name: "leave completed", from: enums.OrderStatusCompleted, to: enums.OrderStatusProcessing},
		{name: "revive cancelled", from: enums.OrderStatusCancelled, to: enums.OrderStatusProcessing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := seedOrder(t, db, 1, tc.from)
			err := svc.SetStatus(context.Background(), order.ID, tc.to, enums.RoleAdmin)
			if err == nil {
				t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
			}
			if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
				t.Fatalf("expected state conflict got %v", err)
			}
		})
	}
}

func TestSetStatusRoleGating(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	order := seedOrder(t, db, 1, enums.OrderStatusPending)
	err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCancelled, enums.RoleStaff)
	if err == nil {
		t.Fatal("expected staff cancellation to be forbidden")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}

	err = svc.SetStatus(context.Background(), order.ID, enums.OrderStatusProcessing, enums.RoleCustomer)
	if err == nil {
		t.Fatal("expected customer transition to be forbidden")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestSetStatusStaffSubsetExcludesCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	order := seedOrder(t, db, 1, enums.OrderStatusReadyForPickup)

	err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCompleted, enums.RoleStaff)
	if err == nil {
		t.Fatal("expected staff completion to be forbidden")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
	if got := orderStatus(t, db, order.ID); got != enums.OrderStatusReadyForPickup {
		t.Fatalf("expected order untouched got %s", got)
	}

	// The exact subset staff may drive, pinned.
	for _, tc := range []struct {
		next enums.OrderStatus
		want bool
	}{
		{next: enums.OrderStatusProcessing, want: true},
		{next: enums.OrderStatusReadyForPickup, want: true},
		{next: enums.OrderStatusCompleted, want: false},
		{next: enums.OrderStatusCancelled, want: false},
	} {
		if got := orders.CanTransitionRole(enums.RoleStaff, tc.next); got != tc.want {
			t.Errorf("staff -> %s: expected %v got %v", tc.next, tc.want, got)
		}
	}
}

func TestCancelRestoresStock(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	product := seedProduct(t, db, 5)
	order := seedOrder(t, db, 1, enums.OrderStatusPending, models.OrderItem{
		ProductID:    product.ID,
		Quantity:     3,
		PriceAtOrder: product.Price,
	})

	if err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCancelled, enums.RoleAdmin); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.StockQuantity != 8 {
		t.Fatalf("expected stock restored to 8 got %d", reloaded.StockQuantity)
	}
	if got := orderStatus(t, db, order.ID); got != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled got %s", got)
	}
}

func TestDoubleCancelDoesNotRestoreTwice(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	product := seedProduct(t, db, 5)
	order := seedOrder(t, db, 1, enums.OrderStatusPending, models.OrderItem{
		ProductID:    product.ID,
		Quantity:     2,
		PriceAtOrder: product.Price,
	})

	if err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCancelled, enums.RoleAdmin); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCancelled, enums.RoleAdmin)
	if err == nil {
		t.Fatal("expected second cancel to fail")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.StockQuantity != 7 {
		t.Fatalf("expected stock restored exactly once (7) got %d", reloaded.StockQuantity)
	}
}

func TestSetPaymentStatusRejectsCancelledOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	order := seedOrder(t, db, 1, enums.OrderStatusCancelled)
	err := svc.SetPaymentStatus(context.Background(), order.ID, enums.PaymentStatusPaid, enums.PaymentTypeCash)
	if err == nil {
		t.Fatal("expected payment on cancelled order to fail")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestSetPaymentStatusUpdatesOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	order := seedOrder(t, db, 1, enums.OrderStatusReadyForPickup)
	if err := svc.SetPaymentStatus(context.Background(), order.ID, enums.PaymentStatusPaid, enums.PaymentTypeCash); err != nil {
		t.Fatalf("set payment: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid got %s", reloaded.PaymentStatus)
	}
	if reloaded.PaymentType != enums.PaymentTypeCash {
		t.Fatalf("expected cash got %s", reloaded.PaymentType)
	}
}

// cancellingRunner flips the order to cancelled right before the payment
// transaction begins, standing in for a cancellation that committed first.
type cancellingRunner struct {
	db      *gorm.DB
	orderID int64
}

func (r cancellingRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := r.db.Model(&models.Order{}).
		Where("id = ?", r.orderID).
		Update("order_status", enums.OrderStatusCancelled).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestSetPaymentStatusSeesConcurrentCancellation(t *testing.T) {
	db := newTestDB(t)
	order := seedOrder(t, db, 1, enums.OrderStatusPending)

	svc, err := orders.NewService(
		orders.NewRepository(db),
		products.NewRepository(db),
		cancellingRunner{db: db, orderID: order.ID},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.SetPaymentStatus(context.Background(), order.ID, enums.PaymentStatusPaid, enums.PaymentTypeCash)
	if err == nil {
		t.Fatal("expected payment on a freshly cancelled order to fail")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("expected order to stay unpaid got %s", reloaded.PaymentStatus)
	}
}

func TestGetForUserScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	order := seedOrder(t, db, 42, enums.OrderStatusPending)

	if _, err := svc.GetForUser(context.Background(), order.ID, 42); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	_, err := svc.GetForUser(context.Background(), order.ID, 43)
	if err == nil {
		t.Fatal("expected stranger lookup to fail")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
