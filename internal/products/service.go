package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/internal/basket"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/pagination"
)

// Service exposes the storefront catalog read operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ResolveVariant(ctx context.Context, productID uuid.UUID, size, color string) (*basket.Line, error)
}

// ListProductsInput captures the paging and filter knobs for the browse endpoint.
type ListProductsInput struct {
	Pagination pagination.Params
	Query      string
}

type service struct {
	repo *Repository
}

// NewService constructs the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// ListProducts returns one page of active products, newest first.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, nextCursor, err := s.repo.ListProducts(ctx, productListQuery{
		Pagination: input.Pagination,
		Query:      input.Query,
		ActiveOnly: true,
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	summaries := make([]ProductSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, NewProductSummary(&rows[i]))
	}
	return &ProductListResult{Products: summaries, NextCursor: nextCursor}, nil
}

// GetBySlug returns the product detail, hiding inactive listings.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

// ResolveVariant checks that (product, size, color) names a purchasable
// variant and returns a basket line carrying the current price snapshot.
// The returned line has quantity zero; the caller sets it.
func (s *service) ResolveVariant(ctx context.Context, productID uuid.UUID, size, color string) (*basket.Line, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if !containsFold(product.Sizes, size) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
			WithDetails(map[string]string{"size": size})
	}
	colorOK := false
	for _, c := range product.Colors {
		if strings.EqualFold(c.Name, color) {
			colorOK = true
			break
		}
	}
	if !colorOK {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
			WithDetails(map[string]string{"color": color})
	}

	return &basket.Line{
		ProductID: product.ID,
		Name:      product.Name,
		Size:      size,
		Color:     color,
		UnitPrice: product.Price,
	}, nil
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
