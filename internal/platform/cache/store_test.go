package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "participant:p1", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", 1)
	if _, ok := store.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	boom := errors.New("boom")
	if _, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	v, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("expected reload after error, v=%v err=%v", v, err)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "participant:id:p1", 1)
	store.Set(ctx, "participant:id:p2", 2)
	store.Set(ctx, "participant:list", 3)

	store.Delete(ctx, "participant:id:p1", "participant:list")
	if _, ok := store.Get(ctx, "participant:id:p1"); ok {
		t.Fatalf("expected p1 to be deleted")
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("expected one entry left, got %d", got)
	}
}

func TestStore_GetOrLoad_WaiterHonorsContext(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
			close(started)
			<-release
			return "slow", nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetOrLoad(ctx, "k", func(context.Context) (any, error) { return "other", nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestStore_GetOrLoad_DeleteDuringLoadIsNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan any, 1)
	go func() {
		v, _ := store.GetOrLoad(ctx, "participant:id:p1", func(context.Context) (any, error) {
			close(started)
			<-release
			return "before-update", nil
		})
		done <- v
	}()
	<-started

	store.Delete(ctx, "participant:id:p1")
	close(release)
	if got := <-done; got != "before-update" {
		t.Fatalf("expected in-flight caller to get its own load, got %v", got)
	}

	if v, ok := store.Get(ctx, "participant:id:p1"); ok {
		t.Fatalf("expected load that raced a delete not to be cached, got %v", v)
	}
	v, err := store.GetOrLoad(ctx, "participant:id:p1", func(context.Context) (any, error) { return "after-update", nil })
	if err != nil || v != "after-update" {
		t.Fatalf("expected fresh load after delete, v=%v err=%v", v, err)
	}
}

func TestStore_SetIfGeneration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)

	gen := store.Generation("k")
	store.Delete(ctx, "k")
	if store.SetIfGeneration(ctx, "k", gen, "stale") {
		t.Fatalf("expected stale generation to be rejected")
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected no entry after rejected set")
	}

	if !store.SetIfGeneration(ctx, "k", store.Generation("k"), "fresh") {
		t.Fatalf("expected current generation to be stored")
	}
	if v, ok := store.Get(ctx, "k"); !ok || v != "fresh" {
		t.Fatalf("expected fresh value, got %v ok=%v", v, ok)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
