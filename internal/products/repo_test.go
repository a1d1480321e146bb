package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/pkg/db/models"
	"github.com/velora-shop/storefront-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.ProductColor{}, &models.StockLevel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func mustCreateTestProduct(t *testing.T, db *gorm.DB, slug string, active bool, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:     slug,
		Name:     "Tee " + slug,
		Price:    decimal.RequireFromString("25.00"),
		Sizes:    pq.StringArray{"S", "M", "L"},
		IsActive: active,
		Colors: []models.ProductColor{
			{Name: "black", Code: "#000000", Images: pq.StringArray{"https://cdn.example.com/" + slug + "-black.jpg"}, Position: 0},
			{Name: "white", Code: "#ffffff", Position: 1},
		},
		CreatedAt: createdAt,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestRepositoryFindBySlugPreloadsRelations(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := mustCreateTestProduct(t, db, "classic-tee", true, time.Now())
	level := models.StockLevel{ProductID: created.ID, Color: "black", Size: "M", Quantity: 7}
	if err := db.Create(&level).Error; err != nil {
		t.Fatalf("create stock level: %v", err)
	}

	product, err := repo.FindBySlug(ctx, "classic-tee")
	if err != nil {
		t.Fatalf("find by slug: %v", err)
	}
	if len(product.Colors) != 2 || product.Colors[0].Name != "black" {
		t.Fatalf("expected colors ordered by position, got %+v", product.Colors)
	}
	if len(product.StockLevels) != 1 || product.StockLevels[0].Quantity != 7 {
		t.Fatalf("expected stock levels preloaded, got %+v", product.StockLevels)
	}
}

func TestRepositoryListProductsPagesWithCursor(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		mustCreateTestProduct(t, db, fmt.Sprintf("tee-%d", i), true, base.Add(time.Duration(i)*time.Minute))
	}

	first, cursor, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2},
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 || first[0].Slug != "tee-4" || first[1].Slug != "tee-3" {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if cursor == "" {
		t.Fatal("expected next cursor for remaining rows")
	}

	second, _, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2, Cursor: cursor},
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 || second[0].Slug != "tee-2" || second[1].Slug != "tee-1" {
		t.Fatalf("unexpected second page: %+v", second)
	}
}

func TestRepositoryListProductsFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	mustCreateTestProduct(t, db, "summer-tee", true, now.Add(-2*time.Minute))
	mustCreateTestProduct(t, db, "winter-hoodie", true, now.Add(-time.Minute))
	mustCreateTestProduct(t, db, "retired-tee", false, now)

	rows, _, err := repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{},
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected inactive product hidden, got %+v", rows)
	}

	rows, _, err = repo.ListProducts(ctx, productListQuery{
		Pagination: pagination.Params{},
		Query:      "HOODIE",
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 1 || rows[0].Slug != "winter-hoodie" {
		t.Fatalf("expected case-insensitive name match, got %+v", rows)
	}
}

func TestRepositoryListProductsRejectsBadCursor(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)

	_, _, err := repo.ListProducts(context.Background(), productListQuery{
		Pagination: pagination.Params{Cursor: "not-a-cursor"},
	})
	if err == nil {
		t.Fatal("expected error for malformed cursor")
	}
}
