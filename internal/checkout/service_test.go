package checkout_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/cart"
	"github.com/hmoralesdev/retailpoint-backend/internal/checkout"
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
	dsn := fmt.Sprintf("file:checkout_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Supplier{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newService(t *testing.T, db *gorm.DB) checkout.Service {
	t.Helper()
	svc, err := checkout.NewService(
		txRunner{db: db},
		cart.NewRepository(db),
		orders.NewRepository(db),
		products.NewRepository(db),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int) *models.Product {
	t.Helper()
	category := models.Category{Name: "Snacks " + uuid.NewString()}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	product := models.Product{
		Name:          "Product " + uuid.NewString(),
		CategoryID:    category.ID,
		Price:         amount,
		StockQuantity: stock,
		Status:        enums.ProductStatusActive,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &product
}

func seedCartItem(t *testing.T, db *gorm.DB, userID, productID int64, qty int) *models.CartItem {
	t.Helper()
	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return &item
}

func stockOf(t *testing.T, db *gorm.DB, productID int64) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQuantity
}

func TestMaterializeCreatesOrderAndDeductsStock(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	userID := int64(11)

	soda := seedProduct(t, db, "2.50", 10)
	chips := seedProduct(t, db, "4.25", 5)
	seedCartItem(t, db, userID, soda.ID, 3)
	seedCartItem(t, db, userID, chips.ID, 2)

	result, err := svc.Materialize(context.Background(), checkout.MaterializeInput{UserID: userID})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if !strings.HasPrefix(result.TransactionCode, checkout.StoreCodePrefix) {
		t.Fatalf("expected %s prefix got %s", checkout.StoreCodePrefix, result.TransactionCode)
	}
	wantTotal := decimal.RequireFromString("16.00")
	if !result.Total.Equal(wantTotal) {
		t.Fatalf("expected total %s got %s", wantTotal, result.Total)
	}

	if got := stockOf(t, db, soda.ID); got != 7 {
		t.Fatalf("expected soda stock 7 got %d", got)
	}
	if got := stockOf(t, db, chips.ID); got != 3 {
		t.Fatalf("expected chips stock 3 got %d", got)
	}

	var order models.Order
	if err := db.Preload("Items").First(&order, result.OrderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.OrderStatus != enums.OrderStatusPending {
		t.Fatalf("expected pending order got %s", order.OrderStatus)
	}
	if order.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("expected unpaid order got %s", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items got %d", len(order.Items))
	}

	var remaining int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&remaining).Error; err != nil {
		t.Fatalf("count cart: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected empty cart got %d lines", remaining)
	}
}

func TestMaterializeInsufficientStockRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	userID := int64(12)

	plenty := seedProduct(t, db, "1.00", 100)
	scarce := seedProduct(t, db, "9.99", 1)
	seedCartItem(t, db, userID, plenty.ID, 5)
	seedCartItem(t, db, userID, scarce.ID, 2)

	_, err := svc.Materialize(context.Background(), checkout.MaterializeInput{UserID: userID})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error got %v", err)
	}
	details, ok := coded.Details().(map[string]any)
	if !ok || details["product_id"] != scarce.ID {
		t.Fatalf("expected product_id detail for %d got %v", scarce.ID, coded.Details())
	}

	// No partial effects: both stocks intact, no order rows, cart untouched.
	if got := stockOf(t, db, plenty.ID); got != 100 {
		t.Fatalf("expected stock 100 after rollback got %d", got)
	}
	if got := stockOf(t, db, scarce.ID); got != 1 {
		t.Fatalf("expected stock 1 after rollback got %d", got)
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders got %d", orderCount)
	}
	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart: %v", err)
	}
	if cartCount != 2 {
		t.Fatalf("expected cart to survive rollback got %d lines", cartCount)
	}
}

func TestMaterializeRejectsEmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	_, err := svc.Materialize(context.Background(), checkout.MaterializeInput{UserID: 13})
	if err == nil {
		t.Fatal("expected error for empty cart")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestMaterializePartialSelectionLeavesOtherLines(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	userID := int64(14)

	bread := seedProduct(t, db, "3.00", 10)
	milk := seedProduct(t, db, "2.00", 10)
	selected := seedCartItem(t, db, userID, bread.ID, 2)
	kept := seedCartItem(t, db, userID, milk.ID, 1)

	result, err := svc.Materialize(context.Background(), checkout.MaterializeInput{
		UserID:      userID,
		CartItemIDs: []int64{selected.ID},
	})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !result.Total.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("expected total 6.00 got %s", result.Total)
	}

	var survivors []models.CartItem
	if err := db.Where("user_id = ?", userID).Find(&survivors).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if len(survivors) != 1 || survivors[0].ID != kept.ID {
		t.Fatalf("expected unselected line to survive got %+v", survivors)
	}
	if got := stockOf(t, db, milk.ID); got != 10 {
		t.Fatalf("expected milk untouched got stock %d", got)
	}
}

func TestMaterializeRejectsUnknownSelection(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	userID := int64(15)

	product := seedProduct(t, db, "1.00", 5)
	item := seedCartItem(t, db, userID, product.ID, 1)

	_, err := svc.Materialize(context.Background(), checkout.MaterializeInput{
		UserID:      userID,
		CartItemIDs: []int64{item.ID, item.ID + 99},
	})
	if err == nil {
		t.Fatal("expected error for unknown cart item id")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestMaterializePriceSnapshotSurvivesCatalogChange(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	userID := int64(16)

	product := seedProduct(t, db, "5.00", 10)
	seedCartItem(t, db, userID, product.ID, 1)

	result, err := svc.Materialize(context.Background(), checkout.MaterializeInput{UserID: userID})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("8.75")).Error; err != nil {
		t.Fatalf("reprice product: %v", err)
	}

	var items []models.OrderItem
	if err := db.Where("order_id = ?", result.OrderID).Find(&items).Error; err != nil {
		t.Fatalf("load order items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 order item got %d", len(items))
	}
	if !items[0].PriceAtOrder.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected snapshot 5.00 got %s", items[0].PriceAtOrder)
	}
}

func TestMaterializePOSCompletesSaleImmediately(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	product := seedProduct(t, db, "2.00", 10)
	result, err := svc.MaterializePOS(context.Background(), checkout.POSInput{
		StaffID: 7,
		Lines: []checkout.POSLine{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("pos checkout: %v", err)
	}

	if !strings.HasPrefix(result.TransactionCode, checkout.POSCodePrefix) {
		t.Fatalf("expected %s prefix got %s", checkout.POSCodePrefix, result.TransactionCode)
	}
	// Duplicate lines merge into one deduction.
	if got := stockOf(t, db, product.ID); got != 7 {
		t.Fatalf("expected stock 7 got %d", got)
	}
	if !result.Total.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("expected total 6.00 got %s", result.Total)
	}

	var order models.Order
	if err := db.First(&order, result.OrderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.OrderStatus != enums.OrderStatusCompleted {
		t.Fatalf("expected completed order got %s", order.OrderStatus)
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid order got %s", order.PaymentStatus)
	}
	if order.PaymentType != enums.PaymentTypeCash {
		t.Fatalf("expected cash default got %s", order.PaymentType)
	}
	if order.StaffID == nil || *order.StaffID != 7 {
		t.Fatalf("expected staff id 7 got %v", order.StaffID)
	}
}

func TestMaterializePOSInsufficientStockAborts(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)

	product := seedProduct(t, db, "2.00", 2)
	_, err := svc.MaterializePOS(context.Background(), checkout.POSInput{
		StaffID: 7,
		Lines:   []checkout.POSLine{{ProductID: product.ID, Quantity: 3}},
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error got %v", err)
	}
	if got := stockOf(t, db, product.ID); got != 2 {
		t.Fatalf("expected stock unchanged got %d", got)
	}
}
