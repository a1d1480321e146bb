package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velora-shop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/pagination"
)

func TestGetBySlugReturnsDetailWithStock(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	created := mustCreateTestProduct(t, db, "classic-tee", true, time.Now())
	levels := []models.StockLevel{
		{ProductID: created.ID, Color: "black", Size: "M", Quantity: 4},
		{ProductID: created.ID, Color: "white", Size: "L", Quantity: 1},
	}
	for i := range levels {
		if err := db.Create(&levels[i]).Error; err != nil {
			t.Fatalf("create stock level: %v", err)
		}
	}

	dto, err := svc.GetBySlug(ctx, "classic-tee")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if dto.Slug != "classic-tee" || len(dto.Colors) != 2 {
		t.Fatalf("unexpected detail: %+v", dto)
	}
	if dto.Colors[0].Stock["M"] != 4 {
		t.Fatalf("expected black/M stock 4, got %+v", dto.Colors[0].Stock)
	}
	// Sizes without a ledger row read as zero.
	if dto.Colors[0].Stock["S"] != 0 {
		t.Fatalf("expected missing size to read zero, got %+v", dto.Colors[0].Stock)
	}
	if dto.Colors[1].Stock["L"] != 1 {
		t.Fatalf("expected white/L stock 1, got %+v", dto.Colors[1].Stock)
	}
}

func TestGetBySlugHidesInactiveProduct(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	mustCreateTestProduct(t, db, "retired-tee", false, time.Now())

	_, err = svc.GetBySlug(context.Background(), "retired-tee")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolveVariantHappyPath(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	created := mustCreateTestProduct(t, db, "classic-tee", true, time.Now())

	line, err := svc.ResolveVariant(context.Background(), created.ID, "M", "black")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if line.ProductID != created.ID || line.Name != created.Name {
		t.Fatalf("unexpected line identity: %+v", line)
	}
	if !line.UnitPrice.Equal(created.Price) {
		t.Fatalf("expected price snapshot %s, got %s", created.Price, line.UnitPrice)
	}
	if line.Quantity != 0 {
		t.Fatalf("expected zero quantity on resolved line, got %d", line.Quantity)
	}
}

func TestResolveVariantRejectsUnknownSizeAndColor(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	created := mustCreateTestProduct(t, db, "classic-tee", true, time.Now())

	if _, err := svc.ResolveVariant(context.Background(), created.ID, "XXL", "black"); pkgerrors.As(err) == nil {
		t.Fatalf("expected error for unknown size, got %v", err)
	}
	if _, err := svc.ResolveVariant(context.Background(), created.ID, "M", "neon"); pkgerrors.As(err) == nil {
		t.Fatalf("expected error for unknown color, got %v", err)
	}
	if _, err := svc.ResolveVariant(context.Background(), uuid.New(), "M", "black"); pkgerrors.As(err) == nil {
		t.Fatalf("expected error for unknown product, got %v", err)
	}
}

func TestResolveVariantRejectsInactiveProduct(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	created := mustCreateTestProduct(t, db, "retired-tee", false, time.Now())

	_, err = svc.ResolveVariant(context.Background(), created.ID, "M", "black")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListProductsReturnsSummaries(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	mustCreateTestProduct(t, db, "classic-tee", true, time.Now())

	result, err := svc.ListProducts(context.Background(), ListProductsInput{Pagination: pagination.Params{}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %+v", result.Products)
	}
	summary := result.Products[0]
	if summary.Slug != "classic-tee" || summary.Image == nil {
		t.Fatalf("expected lead image on summary, got %+v", summary)
	}
	if result.NextCursor != "" {
		t.Fatalf("expected no cursor for single page, got %q", result.NextCursor)
	}
}
