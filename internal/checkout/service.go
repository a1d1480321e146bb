package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/internal/basket"
	"github.com/velora-shop/storefront-backend/internal/inventory"
	"github.com/velora-shop/storefront-backend/internal/orders"
	"github.com/velora-shop/storefront-backend/pkg/config"
	"github.com/velora-shop/storefront-backend/pkg/db/models"
	"github.com/velora-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/logger"
	"github.com/velora-shop/storefront-backend/pkg/metrics"
	"github.com/velora-shop/storefront-backend/pkg/outbox"
	"github.com/velora-shop/storefront-backend/pkg/outbox/payloads"
	"github.com/velora-shop/storefront-backend/pkg/types"
)

// Service places orders. Placement is the only write path that commits stock:
// everything inside one transaction, retried on serialization conflicts.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*orders.OrderDTO, error)
}

// PlaceOrderInput is the validated checkout payload.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	GuestToken    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Shipping      types.ShippingInfo
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userBaskets interface {
	Get(ctx context.Context, userID uuid.UUID) (*basket.Basket, error)
	ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	Notify(ctx context.Context, userID uuid.UUID)
}

type guestBaskets interface {
	Delete(ctx context.Context, token string) error
}

type stockLedger interface {
	CheckAvailable(ctx context.Context, reqs []inventory.Requirement) ([]inventory.Shortage, error)
	DecrementAllTx(ctx context.Context, tx *gorm.DB, reqs []inventory.Requirement) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx      txRunner
	users   userReader
	baskets userBaskets
	guests  guestBaskets
	ledger  stockLedger
	orders  orders.Repository
	outbox  eventEmitter
	metrics *metrics.CheckoutMetrics
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewService constructs the order placement service.
func NewService(
	tx txRunner,
	users userReader,
	baskets userBaskets,
	guests guestBaskets,
	ledger stockLedger,
	ordersRepo orders.Repository,
	emitter eventEmitter,
	checkoutMetrics *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if baskets == nil {
		return nil, fmt.Errorf("user basket store required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if checkoutMetrics == nil {
		checkoutMetrics = metrics.NewCheckoutMetrics(nil)
	}
	return &service{
		tx:      tx,
		users:   users,
		baskets: baskets,
		guests:  guests,
		ledger:  ledger,
		orders:  ordersRepo,
		outbox:  emitter,
		metrics: checkoutMetrics,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

// PlaceOrder validates the basket against live stock, then commits the
// decrement, the order snapshot, the outbox event, and the basket wipe in a
// single transaction. The transaction is retried on serialization conflicts
// up to the configured bound; a terminal conflict surfaces as
// TRANSACTION_ABORTED with nothing written.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*orders.OrderDTO, error) {
	start := time.Now()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateInput(input); err != nil {
		s.reject(start, "invalid_input")
		return nil, err
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	if !user.EmailVerified {
		s.reject(start, "email_unverified")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email address not verified")
	}

	b, err := s.baskets.Get(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading basket")
	}
	if b.IsEmpty() {
		s.reject(start, "empty_basket")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basket is empty")
	}

	reqs := requirements(b)

	// Advisory pass outside the transaction: reject obviously stale baskets
	// with the full shortage list before touching the ledger.
	shortages, err := s.ledger.CheckAvailable(ctx, reqs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking stock")
	}
	if len(shortages) > 0 {
		s.reject(start, "insufficient_stock")
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(shortages)
	}

	maxAttempts := s.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var placed *models.Order
	for attempt := 1; ; attempt++ {
		placed = nil
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.ledger.DecrementAllTx(ctx, tx, reqs); err != nil {
				return err
			}
			order := s.buildOrder(user, input, b)
			created, err := s.orders.WithTx(tx).Create(ctx, order)
			if err != nil {
				return err
			}
			placed = created
			if err := s.outbox.Emit(ctx, tx, orderPlacedEvent(created)); err != nil {
				return err
			}
			return s.baskets.ClearTx(ctx, tx, input.UserID)
		})
		if err == nil {
			break
		}

		if coded := pkgerrors.As(err); coded != nil {
			if coded.Code() == pkgerrors.CodeInsufficientStock {
				s.reject(start, "insufficient_stock")
			}
			return nil, err
		}
		if !isRetryableTxError(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: place order")
		}
		if attempt >= maxAttempts {
			s.metrics.IncAborted()
			s.metrics.ObserveDuration("aborted", time.Since(start))
			if s.logg != nil {
				s.logg.Error(ctx, fmt.Sprintf("checkout aborted after %d attempts", attempt), err)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionAborted, err, "order could not be placed, please retry")
		}
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("checkout transaction conflict, retrying (attempt %d/%d)", attempt, maxAttempts))
		}
		if werr := waitBackoff(ctx, s.cfg.RetryBackoff); werr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, werr, "checkout cancelled")
		}
	}

	// Post-commit: signals only, the order is already durable.
	s.baskets.Notify(ctx, input.UserID)
	if input.GuestToken != "" && s.guests != nil {
		if err := s.guests.Delete(ctx, input.GuestToken); err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("guest basket cleanup failed: %v", err))
		}
	}

	s.metrics.IncPlaced()
	s.metrics.ObserveDuration("committed", time.Since(start))
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", placed.ID.String()), "order placed")
	}
	return orders.NewOrderDTO(placed), nil
}

func (s *service) reject(start time.Time, reason string) {
	s.metrics.IncRejected(reason)
	s.metrics.ObserveDuration("rejected", time.Since(start))
}

func (s *service) buildOrder(user *models.User, input PlaceOrderInput, b *basket.Basket) *models.Order {
	subtotal := b.Subtotal()
	fee := ShippingFee(subtotal, s.cfg.FreeShippingThresholdAmount(), s.cfg.FlatShippingFeeAmount())

	order := &models.Order{
		UserID:        user.ID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		Shipping:      input.Shipping,
		Subtotal:      subtotal,
		ShippingFee:   fee,
		Total:         subtotal.Add(fee),
		Status:        enums.OrderStatusNew,
		Lines:         make([]models.OrderLine, 0, len(b.Lines)),
	}
	for _, line := range b.Lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Size:      line.Size,
			Color:     line.Color,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.UnitPrice.Mul(qty),
		})
	}
	return order
}

func orderPlacedEvent(order *models.Order) outbox.DomainEvent {
	lines := make([]payloads.OrderPlacedLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, payloads.OrderPlacedLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Size:      line.Size,
			Color:     line.Color,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal.StringFixed(2),
		})
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: order.UserID},
		Data: payloads.OrderPlacedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        order.UserID,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			Subtotal:      order.Subtotal.StringFixed(2),
			ShippingFee:   order.ShippingFee.StringFixed(2),
			Total:         order.Total.StringFixed(2),
			Lines:         lines,
			PlacedAt:      order.CreatedAt,
		},
	}
}

func requirements(b *basket.Basket) []inventory.Requirement {
	reqs := make([]inventory.Requirement, 0, len(b.Lines))
	for _, line := range b.Lines {
		reqs = append(reqs, inventory.Requirement{
			ProductID: line.ProductID,
			Color:     line.Color,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	}
	return reqs
}

func validateInput(input PlaceOrderInput) error {
	missing := []string{}
	if strings.TrimSpace(input.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		missing = append(missing, "customer_email")
	}
	if strings.TrimSpace(input.Shipping.Line1) == "" {
		missing = append(missing, "shipping.line1")
	}
	if strings.TrimSpace(input.Shipping.City) == "" {
		missing = append(missing, "shipping.city")
	}
	if strings.TrimSpace(input.Shipping.PostalCode) == "" {
		missing = append(missing, "shipping.postal_code")
	}
	if strings.TrimSpace(input.Shipping.Country) == "" {
		missing = append(missing, "shipping.country")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required checkout fields").
			WithDetails(missing)
	}
	return nil
}

// isRetryableTxError recognizes Postgres serialization failures (40001) and
// deadlocks (40P01), the two cases where rerunning the whole transaction is
// the correct response.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected")
}

func waitBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
