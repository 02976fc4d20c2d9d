package cart_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmoralesdev/retailpoint-backend/internal/cart"
	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db/models"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	pkgerrors "github.com/hmoralesdev/retailpoint-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Supplier{},
		&models.Product{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newService(t *testing.T, db *gorm.DB) cart.Service {
	t.Helper()
	svc, err := cart.NewService(cart.NewRepository(db), products.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, price string, status enums.ProductStatus) *models.Product {
	t.Helper()
	category := models.Category{Name: "Drinks " + uuid.NewString()}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	product := models.Product{
		Name:          "Product " + uuid.NewString(),
		CategoryID:    category.ID,
		Price:         decimal.RequireFromString(price),
		StockQuantity: 10,
		Status:        status,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &product
}

func TestAddMergesDuplicateLines(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	product := seedProduct(t, db, "2.00", enums.ProductStatusActive)

	first, err := svc.Add(context.Background(), 1, product.ID, 2)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := svc.Add(context.Background(), 1, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same cart line got %d and %d", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("expected merged quantity 5 got %d", second.Quantity)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count cart: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single line got %d", count)
	}
}

func TestAddRejectsHiddenProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	hidden := seedProduct(t, db, "2.00", enums.ProductStatusHidden)

	_, err := svc.Add(context.Background(), 1, hidden.ID, 1)
	if err == nil {
		t.Fatal("expected hidden product to be rejected")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestAddRejectsQuantityOutOfRange(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	product := seedProduct(t, db, "2.00", enums.ProductStatusActive)

	for _, qty := range []int{0, -1, cart.MaxLineQuantity + 1} {
		if _, err := svc.Add(context.Background(), 1, product.ID, qty); err == nil {
			t.Fatalf("expected quantity %d to be rejected", qty)
		}
	}

	// Merging past the ceiling is rejected too.
	if _, err := svc.Add(context.Background(), 1, product.ID, cart.MaxLineQuantity); err != nil {
		t.Fatalf("add at ceiling: %v", err)
	}
	if _, err := svc.Add(context.Background(), 1, product.ID, 1); err == nil {
		t.Fatal("expected merge past ceiling to be rejected")
	}
}

func TestListSumsSubtotals(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	soda := seedProduct(t, db, "2.50", enums.ProductStatusActive)
	chips := seedProduct(t, db, "4.25", enums.ProductStatusActive)

	if _, err := svc.Add(context.Background(), 1, soda.ID, 2); err != nil {
		t.Fatalf("add soda: %v", err)
	}
	if _, err := svc.Add(context.Background(), 1, chips.ID, 1); err != nil {
		t.Fatalf("add chips: %v", err)
	}

	summary, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summary.Lines) != 2 {
		t.Fatalf("expected 2 lines got %d", len(summary.Lines))
	}
	if !summary.Total.Equal(decimal.RequireFromString("9.25")) {
		t.Fatalf("expected total 9.25 got %s", summary.Total)
	}
}

func TestUpdateAndRemoveEnforceOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newService(t, db)
	product := seedProduct(t, db, "2.00", enums.ProductStatusActive)

	line, err := svc.Add(context.Background(), 1, product.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.UpdateQuantity(context.Background(), 2, line.ID, 4); err == nil {
		t.Fatal("expected stranger update to fail")
	}
	if err := svc.Remove(context.Background(), 2, line.ID); err == nil {
		t.Fatal("expected stranger remove to fail")
	}

	if err := svc.UpdateQuantity(context.Background(), 1, line.ID, 4); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	count, err := svc.Count(context.Background(), 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1 got %d", count)
	}

	if err := svc.Remove(context.Background(), 1, line.ID); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
	count, err = svc.Count(context.Background(), 1)
	if err != nil {
		t.Fatalf("count after remove: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cart got %d", count)
	}
}
