package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velora-shop/storefront-backend/pkg/db/models"
)

// ProductSummary is the catalog listing payload.
type ProductSummary struct {
	ID        uuid.UUID       `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Sizes     []string        `json:"sizes"`
	Image     *string         `json:"image,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductListResult carries one catalog page and the cursor for the next.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ColorDTO is one colorway with its gallery and per-size availability.
type ColorDTO struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Code   string         `json:"code"`
	Images []string       `json:"images"`
	Stock  map[string]int `json:"stock"`
}

// ProductDTO is the product detail payload.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Sizes       []string        `json:"sizes"`
	Colors      []ColorDTO      `json:"colors"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProductSummary builds the listing row; the image is the lead colorway's
// first gallery shot when one exists.
func NewProductSummary(product *models.Product) ProductSummary {
	summary := ProductSummary{
		ID:        product.ID,
		Slug:      product.Slug,
		Name:      product.Name,
		Price:     product.Price,
		Sizes:     append([]string{}, product.Sizes...),
		CreatedAt: product.CreatedAt,
	}
	if len(product.Colors) > 0 && len(product.Colors[0].Images) > 0 {
		image := product.Colors[0].Images[0]
		summary.Image = &image
	}
	return summary
}

// NewProductDTO builds the detail payload, folding stock levels into each
// colorway as a size-to-quantity map.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Slug:        product.Slug,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Sizes:       append([]string{}, product.Sizes...),
		Colors:      make([]ColorDTO, 0, len(product.Colors)),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	stockByColor := make(map[string]map[string]int, len(product.Colors))
	for _, level := range product.StockLevels {
		if stockByColor[level.Color] == nil {
			stockByColor[level.Color] = make(map[string]int)
		}
		stockByColor[level.Color][level.Size] = level.Quantity
	}

	for _, color := range product.Colors {
		entry := ColorDTO{
			ID:     color.ID,
			Name:   color.Name,
			Code:   color.Code,
			Images: append([]string{}, color.Images...),
			Stock:  make(map[string]int, len(product.Sizes)),
		}
		for _, size := range product.Sizes {
			entry.Stock[size] = stockByColor[color.Name][size]
		}
		dto.Colors = append(dto.Colors, entry)
	}
	return dto
}
