package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/liamwears/popular/internal/listing"
	"github.com/liamwears/popular/internal/models"
)

func sampleState() listing.State {
	poster := "/heat.jpg"
	state := listing.NewState()
	state.Movies = []models.Movie{
		{ID: 7, Title: "Heat", ReleaseDate: "1995-12-15", PosterPath: &poster, VoteAverage: 8.3},
		{ID: 8, Title: "No Poster"},
	}
	state.CurrentPage = 2
	state.SearchText = "crime"
	return state
}

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisScreenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient() unexpected error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisScreenStore(client, ttl), mr
}

func TestRedisScreenStoreRoundTrip(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	if _, err := store.Load(ctx, id); !errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() on empty store error = %v, want ErrScreenNotFound", err)
	}

	if err := store.Save(ctx, id, sampleState()); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if ttl := mr.TTL("screen:" + id.String()); ttl != time.Minute {
		t.Fatalf("TTL = %s, want 1m", ttl)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(got.Movies) != 2 || got.CurrentPage != 2 || got.SearchText != "crime" || !got.CanLoadMore {
		t.Fatalf("Load() = %+v", got)
	}
	if got.Movies[0].PosterPath == nil || *got.Movies[0].PosterPath != "/heat.jpg" {
		t.Fatalf("poster path lost in round trip")
	}
	if got.Movies[1].PosterPath != nil {
		t.Fatalf("absent poster path became %q", *got.Movies[1].PosterPath)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := store.Load(ctx, id); !errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() after Delete error = %v, want ErrScreenNotFound", err)
	}
}

func TestRedisScreenStoreExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	_ = store.Save(ctx, id, sampleState())
	mr.FastForward(2 * time.Minute)

	if _, err := store.Load(ctx, id); !errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() after expiry error = %v, want ErrScreenNotFound", err)
	}
}

func TestRedisScreenStoreCorruptPayload(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	id := uuid.New()
	_ = mr.Set("screen:"+id.String(), "{not json")

	_, err := store.Load(context.Background(), id)
	if err == nil || errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() error = %v, want decode error", err)
	}
}

func TestRedisHealth(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	if err := store.client.Health(context.Background()); err != nil {
		t.Fatalf("Health() unexpected error: %v", err)
	}
	mr.Close()
	if err := store.client.Health(context.Background()); err == nil {
		t.Fatalf("Health() expected error after server stopped")
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisClient(RedisConfig{Addr: addr}); err == nil {
		t.Fatalf("NewRedisClient() expected ping error")
	}
}

func TestMemoryScreenStore(t *testing.T) {
	store := NewMemoryScreenStore(time.Minute)
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()
	id := uuid.New()

	if _, err := store.Load(ctx, id); !errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() on empty store error = %v", err)
	}

	_ = store.Save(ctx, id, sampleState())
	now = now.Add(50 * time.Second)
	if _, err := store.Load(ctx, id); err != nil {
		t.Fatalf("Load() before expiry unexpected error: %v", err)
	}

	// Load refreshed the expiry, so 50s more is still within the TTL.
	now = now.Add(50 * time.Second)
	if got, err := store.Load(ctx, id); err != nil || got.CurrentPage != 2 {
		t.Fatalf("Load() = %+v, %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Load(ctx, id); !errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() after expiry error = %v, want ErrScreenNotFound", err)
	}

	_ = store.Save(ctx, id, sampleState())
	_ = store.Delete(ctx, id)
	if _, err := store.Load(ctx, id); !errors.Is(err, listing.ErrScreenNotFound) {
		t.Fatalf("Load() after Delete error = %v", err)
	}
}
