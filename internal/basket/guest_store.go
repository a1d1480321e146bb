package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// guestBlobStore is the slice of the redis client the guest store needs.
type guestBlobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestBasketKey(token string) string
}

// GuestStore keeps anonymous baskets as JSON blobs in Redis, keyed by the
// opaque token carried in the shopper's cookie. Every save refreshes the TTL
// so active guests never lose their basket mid-session.
type GuestStore struct {
	store guestBlobStore
	ttl   time.Duration
}

// NewGuestStore builds a guest basket store with the configured TTL.
func NewGuestStore(store guestBlobStore, ttl time.Duration) (*GuestStore, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("guest basket ttl must be positive")
	}
	return &GuestStore{store: store, ttl: ttl}, nil
}

// Get loads the basket for the token. A missing or expired key is an empty
// basket, not an error.
func (s *GuestStore) Get(ctx context.Context, token string) (*Basket, error) {
	if token == "" {
		return &Basket{}, nil
	}
	raw, err := s.store.Get(ctx, s.store.GuestBasketKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return &Basket{}, nil
		}
		return nil, fmt.Errorf("loading guest basket: %w", err)
	}

	var b Basket
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		// A corrupt blob is unrecoverable; treat it as an empty basket
		// rather than locking the shopper out.
		return &Basket{}, nil
	}
	b.Normalize()
	return &b, nil
}

// Save overwrites the stored basket and refreshes the TTL. Saving an empty
// basket deletes the key.
func (s *GuestStore) Save(ctx context.Context, token string, b *Basket) error {
	if token == "" {
		return errors.New("guest token is required")
	}
	if b.IsEmpty() {
		return s.Delete(ctx, token)
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding guest basket: %w", err)
	}
	if err := s.store.Set(ctx, s.store.GuestBasketKey(token), string(payload), s.ttl); err != nil {
		return fmt.Errorf("storing guest basket: %w", err)
	}
	return nil
}

// Delete removes the basket for the token.
func (s *GuestStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Del(ctx, s.store.GuestBasketKey(token)); err != nil {
		return fmt.Errorf("deleting guest basket: %w", err)
	}
	return nil
}
