package basket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type fakeBlobStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeBlobStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeBlobStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeBlobStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeBlobStore) GuestBasketKey(token string) string {
	return "velora:basket:guest:" + token
}

func TestGuestStoreRoundTrip(t *testing.T) {
	store := newFakeBlobStore()
	guests, err := NewGuestStore(store, 168*time.Hour)
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	ctx := context.Background()
	productID := uuid.New()
	in := &Basket{Lines: []Line{line(productID, "M", "black", 2, "25.00")}}
	if err := guests.Save(ctx, "tok-1", in); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := store.ttls[store.GuestBasketKey("tok-1")]; ttl != 168*time.Hour {
		t.Fatalf("expected ttl refresh to 168h, got %v", ttl)
	}

	out, err := guests.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out.Lines) != 1 || out.Lines[0].Quantity != 2 {
		t.Fatalf("round trip mismatch: %+v", out.Lines)
	}
	if !out.Lines[0].UnitPrice.Equal(in.Lines[0].UnitPrice) {
		t.Fatalf("price snapshot lost: %s", out.Lines[0].UnitPrice)
	}
}

func TestGuestStoreMissingTokenIsEmptyBasket(t *testing.T) {
	guests, err := NewGuestStore(newFakeBlobStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	out, err := guests.Get(context.Background(), "never-saved")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !out.IsEmpty() {
		t.Fatalf("expected empty basket, got %+v", out.Lines)
	}
}

func TestGuestStoreSavingEmptyDeletesKey(t *testing.T) {
	store := newFakeBlobStore()
	guests, err := NewGuestStore(store, time.Hour)
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	ctx := context.Background()
	if err := guests.Save(ctx, "tok-2", &Basket{Lines: []Line{line(uuid.New(), "S", "red", 1, "10.00")}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := guests.Save(ctx, "tok-2", &Basket{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := store.data[store.GuestBasketKey("tok-2")]; ok {
		t.Fatal("expected key deleted for empty basket")
	}
}

func TestGuestStoreCorruptBlobFallsBackToEmpty(t *testing.T) {
	store := newFakeBlobStore()
	guests, err := NewGuestStore(store, time.Hour)
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}
	store.data[store.GuestBasketKey("tok-3")] = "{not json"

	out, err := guests.Get(context.Background(), "tok-3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !out.IsEmpty() {
		t.Fatalf("expected empty basket for corrupt blob")
	}
}
