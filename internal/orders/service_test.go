package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func TestGetOrderReturnsOwnOrder(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.Create(ctx, buildTestOrder(userID, time.Now()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dto, err := svc.GetOrder(ctx, userID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.ID != created.ID || len(dto.Lines) != 1 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.Status != "new" {
		t.Fatalf("expected status new, got %s", dto.Status)
	}
}

func TestGetOrderHidesForeignOrder(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildTestOrder(uuid.New(), time.Now()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.GetOrder(ctx, uuid.New(), created.ID)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for foreign order, got %v", err)
	}
}

func TestGetOrderUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetOrder(context.Background(), uuid.New(), uuid.New())
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetOrderRequiresIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetOrder(context.Background(), uuid.Nil, uuid.New())
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestListOrdersScopedToUser(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := repo.Create(ctx, buildTestOrder(userID, time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, buildTestOrder(uuid.New(), time.Now())); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	result, err := svc.ListOrders(ctx, userID, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(result.Orders))
	}
}

func TestListOrdersRejectsBadCursor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListOrders(context.Background(), uuid.New(), pagination.Params{Cursor: "%%%"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
