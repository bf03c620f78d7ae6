package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("unexpected a: %v %v", v, ok)
	}
	if got := c.Keys(); len(got) != 2 || got[0] != "a" {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("k2", "v2")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected k to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestGetOrLoadSharesConcurrentLoads(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "owner", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("load: %v", err)
			}
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() < 1 || calls.Load() > int32(len(results)) {
		t.Fatalf("unexpected load count %d", calls.Load())
	}
	for _, v := range results {
		if v != 42 {
			t.Fatalf("unexpected result %d", v)
		}
	}
	if v, ok := c.Get("owner"); !ok || v != 42 {
		t.Fatalf("expected cached value")
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	boom := errors.New("boom")

	if _, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("unexpected second load: %v %v", v, err)
	}
	if s := c.Stats(); s.Size != 1 || s.Misses < 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestGetOrLoadDiscardsLoadOverlappingDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan int)
	go func() {
		v, _ := c.GetOrLoad(context.Background(), "owner", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()
	<-started
	c.Delete("owner")
	close(release)

	if v := <-done; v != 1 {
		t.Fatalf("in-flight caller should still get its result, got %d", v)
	}
	if _, ok := c.Get("owner"); ok {
		t.Fatalf("load overlapping Delete must not be cached")
	}
	v, err := c.GetOrLoad(context.Background(), "owner", func(context.Context) (int, error) { return 2, nil })
	if err != nil || v != 2 {
		t.Fatalf("expected fresh load, got %v %v", v, err)
	}
	if v, ok := c.Get("owner"); !ok || v != 2 {
		t.Fatalf("expected fresh value cached, got %v %v", v, ok)
	}
}

func TestGetOrLoadDiscardsLoadOverlappingPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.GetOrLoad(context.Background(), "owner", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started
	c.Purge()
	close(release)
	<-done

	if _, ok := c.Get("owner"); ok {
		t.Fatalf("load overlapping Purge must not be cached")
	}
}

func TestGetOrLoadCallerCancellationIsPerCaller(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(first, "owner", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				loadErr.Store(err)
				return 0, err
			}
			return 42, nil
		})
		firstDone <- err
	}()
	<-started

	secondDone := make(chan int, 1)
	go func() {
		v, _ := c.GetOrLoad(context.Background(), "owner", func(context.Context) (int, error) {
			return -1, nil
		})
		secondDone <- v
	}()

	cancel()
	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should see its own cancellation, got %v", err)
	}
	close(release)

	if v := <-secondDone; v != 42 {
		t.Fatalf("unexpected value for second caller %d", v)
	}
	if loadErr.Load() != nil {
		t.Fatalf("shared load saw the first caller's cancellation: %v", loadErr.Load())
	}
	if v, ok := c.Get("owner"); !ok || v != 42 {
		t.Fatalf("expected a cached value, got %v %v", v, ok)
	}
}

func TestManagerSweepAndStop(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(time.Hour)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()

	// Stop without a running loop returns immediately
	NewManager().Stop()
}
