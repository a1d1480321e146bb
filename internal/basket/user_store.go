package basket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/pkg/db/models"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// basketNotifier is the pub/sub slice used to fan out save notifications.
type basketNotifier interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
	BasketChannel(userID string) string
}

// Repository persists account baskets.
type Repository struct {
	db *gorm.DB
}

// NewBasketRepository constructs a basket repository bound to the provided DB.
func NewBasketRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the basket record with lines, or nil when absent.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.BasketRecord, error) {
	var record models.BasketRecord
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Replace overwrites the basket's full line set. Callers run it inside a
// transaction so a torn save never leaves a half-written basket.
func (r *Repository) Replace(ctx context.Context, userID uuid.UUID, lines []models.BasketLine) error {
	db := r.db.WithContext(ctx)

	record := models.BasketRecord{UserID: userID}
	err := db.Where("user_id = ?", userID).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&record).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if err := db.Where("basket_id = ?", record.ID).Delete(&models.BasketLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = uuid.Nil
		lines[i].BasketID = record.ID
	}
	return db.Create(&lines).Error
}

// DeleteByUser removes the basket record and its lines.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	var record models.BasketRecord
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("basket_id = ?", record.ID).Delete(&models.BasketLine{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&record).Error
}

// changeFeed is one open subscription to a basket's change channel.
type changeFeed interface {
	Updates() <-chan struct{}
	Close() error
}

type feedOpener func(ctx context.Context, channel string) (changeFeed, error)

// UserStore is the account-bound basket store. Saves replace the whole
// basket atomically (last write wins across devices) and notify subscribers
// over Redis pub/sub so other sessions can refresh.
type UserStore struct {
	repo     *Repository
	tx       txRunner
	notifier basketNotifier
	openFeed feedOpener
	logg     *logger.Logger
}

// NewUserStore builds a user basket store.
func NewUserStore(repo *Repository, tx txRunner, notifier basketNotifier, logg *logger.Logger) (*UserStore, error) {
	if repo == nil {
		return nil, errors.New("basket repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	store := &UserStore{repo: repo, tx: tx, notifier: notifier, logg: logg}
	if notifier != nil {
		store.openFeed = func(ctx context.Context, channel string) (changeFeed, error) {
			ps, err := notifier.Subscribe(ctx, channel)
			if err != nil {
				return nil, err
			}
			return newPubSubFeed(ps), nil
		}
	}
	return store, nil
}

// Get loads the user's basket. A user with no saved basket gets an empty one.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*Basket, error) {
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading basket: %w", err)
	}
	if record == nil {
		return &Basket{}, nil
	}
	b := fromRecord(record)
	b.Normalize()
	return b, nil
}

// Save overwrites the stored basket with the provided one and notifies
// subscribers. Notification failures are logged, never surfaced: the write
// is the contract, the signal is best effort.
func (s *UserStore) Save(ctx context.Context, userID uuid.UUID, b *Basket) error {
	if userID == uuid.Nil {
		return errors.New("user id is required")
	}
	snapshot := b.Clone()
	snapshot.Normalize()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Replace(ctx, userID, toLineModels(snapshot))
	})
	if err != nil {
		return fmt.Errorf("saving basket: %w", err)
	}

	s.notify(ctx, userID)
	return nil
}

// Clear drops the user's basket entirely.
func (s *UserStore) Clear(ctx context.Context, userID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("clearing basket: %w", err)
	}
	s.notify(ctx, userID)
	return nil
}

// ClearTx drops the user's basket inside the caller's transaction. The caller
// is responsible for post-commit notification.
func (s *UserStore) ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return s.repo.WithTx(tx).Replace(ctx, userID, nil)
}

// Notify publishes a change signal for the user's basket channel.
func (s *UserStore) Notify(ctx context.Context, userID uuid.UUID) {
	s.notify(ctx, userID)
}

// Subscribe invokes fn with a fresh basket snapshot every time a save is
// signalled for the user. Deliveries are at-least-once, so fn may see the
// same snapshot twice. The returned cancel stops the stream and may be
// called more than once.
func (s *UserStore) Subscribe(ctx context.Context, userID uuid.UUID, fn func(*Basket)) (func(), error) {
	if fn == nil {
		return nil, errors.New("callback is required")
	}
	if s.notifier == nil || s.openFeed == nil {
		return nil, errors.New("notifier not configured")
	}

	feed, err := s.openFeed(ctx, s.notifier.BasketChannel(userID.String()))
	if err != nil {
		return nil, fmt.Errorf("subscribing to basket channel: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case _, ok := <-feed.Updates():
				if !ok {
					return
				}
				b, err := s.Get(ctx, userID)
				if err != nil {
					if s.logg != nil {
						s.logg.Warn(ctx, fmt.Sprintf("basket refresh after signal failed for user %s: %v", userID, err))
					}
					continue
				}
				fn(b)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			if err := feed.Close(); err != nil && s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("closing basket feed for user %s: %v", userID, err))
			}
		})
	}
	return cancel, nil
}

// pubSubFeed adapts a redis subscription into a coalescing signal channel.
// The pump drops signals while one is already pending; subscribers re-read
// the basket anyway, so a burst of saves needs only one refresh.
type pubSubFeed struct {
	ps      *redislib.PubSub
	updates chan struct{}
}

func newPubSubFeed(ps *redislib.PubSub) *pubSubFeed {
	f := &pubSubFeed{ps: ps, updates: make(chan struct{}, 1)}
	go func() {
		defer close(f.updates)
		for range ps.Channel() {
			select {
			case f.updates <- struct{}{}:
			default:
			}
		}
	}()
	return f
}

func (f *pubSubFeed) Updates() <-chan struct{} { return f.updates }

func (f *pubSubFeed) Close() error { return f.ps.Close() }

func (s *UserStore) notify(ctx context.Context, userID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, s.notifier.BasketChannel(userID.String()), "updated"); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("basket notify failed for user %s: %v", userID, err))
	}
}

func fromRecord(record *models.BasketRecord) *Basket {
	b := &Basket{Lines: make([]Line, 0, len(record.Lines))}
	for _, row := range record.Lines {
		b.Lines = append(b.Lines, Line{
			ProductID: row.ProductID,
			Name:      row.Name,
			Size:      row.Size,
			Color:     row.Color,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}
	return b
}

func toLineModels(b *Basket) []models.BasketLine {
	if b.IsEmpty() {
		return nil
	}
	lines := make([]models.BasketLine, 0, len(b.Lines))
	for _, line := range b.Lines {
		lines = append(lines, models.BasketLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Size:      line.Size,
			Color:     line.Color,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return lines
}
