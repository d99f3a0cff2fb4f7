package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "attempt:"), mr
}

type cachedAttempt struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

func TestCacheHelperSetGet(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	want := cachedAttempt{ID: 7, Status: "in_progress"}
	if err := helper.Set(ctx, "id:7", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedAttempt
	if err := helper.Get(ctx, "id:7", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheHelperGetMiss(t *testing.T) {
	helper, _ := newTestCache(t)

	var got cachedAttempt
	err := helper.Get(context.Background(), "id:404", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() on miss error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "attempt:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", cachedAttempt{}, time.Minute); err != nil {
		t.Errorf("Set() with nil client error = %v, want nil", err)
	}
	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("Delete() with nil client error = %v, want nil", err)
	}

	var got cachedAttempt
	if err := helper.Get(ctx, "id:1", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() with nil client error = %v, want ErrCacheNotAvailable", err)
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedAttempt{ID: 9, Status: "submitted"}, nil
	}

	var got cachedAttempt
	if err := helper.CacheOrExecute(ctx, "id:9", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if calls != 1 || got.ID != 9 {
		t.Fatalf("first call: calls = %d, got = %+v", calls, got)
	}

	// The async Set needs a moment before the second read hits the cache.
	deadline := time.Now().Add(time.Second)
	for {
		var cached cachedAttempt
		if err := helper.Get(ctx, "id:9", &cached); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("value never reached the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var second cachedAttempt
	if err := helper.CacheOrExecute(ctx, "id:9", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second CacheOrExecute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch ran %d times, want 1 (second read should hit cache)", calls)
	}
	if second.Status != "submitted" {
		t.Errorf("cached value = %+v", second)
	}
}

func TestInvalidatePattern(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	keys := []string{"quiz:10:student:a", "quiz:10:student:b", "quiz:11:student:a"}
	for _, key := range keys {
		if err := helper.Set(ctx, key, cachedAttempt{ID: 1}, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "quiz:10:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	var got cachedAttempt
	if err := helper.Get(ctx, "quiz:10:student:a", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("quiz 10 key survived invalidation: %v", err)
	}
	if err := helper.Get(ctx, "quiz:11:student:a", &got); err != nil {
		t.Errorf("quiz 11 key should survive, got %v", err)
	}
}

func TestCacheManagerHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cm := NewCacheManager(client)
	if err := cm.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	nilCM := NewCacheManager(nil)
	if err := nilCM.HealthCheck(context.Background()); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("HealthCheck() without client error = %v, want ErrCacheNotAvailable", err)
	}
}
