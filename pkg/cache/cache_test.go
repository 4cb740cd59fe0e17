package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU[int](0, 0)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v; want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](2, 0)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestLRU_UnboundedByDefault(t *testing.T) {
	c := NewLRU[int](0, 0)
	for i := 0; i < 1000; i++ {
		c.Set(Key(i), i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len = %d, want 1000", c.Len())
	}
}

func TestLRU_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int](0, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after expiry")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired removed %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestLRU_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int](0, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(24 * 365 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry expired with zero TTL")
	}
}

func TestMemo_CachesSuccess(t *testing.T) {
	m := NewMemo[[]int]("test", Config{}, nil)
	var calls int

	fn := func(context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	first, hit, err := m.Do(context.Background(), "k", fn)
	if err != nil || hit {
		t.Fatalf("first Do: hit=%v err=%v", hit, err)
	}
	second, hit, err := m.Do(context.Background(), "k", fn)
	if err != nil || !hit {
		t.Fatalf("second Do: hit=%v err=%v", hit, err)
	}

	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if len(first) != len(second) {
		t.Errorf("results differ: %v vs %v", first, second)
	}

	if _, _, err := m.Do(context.Background(), "other", fn); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("distinct key should call fn again, calls = %d", calls)
	}
}

func TestMemo_DoesNotCacheFailure(t *testing.T) {
	m := NewMemo[int]("test", Config{}, nil)
	boom := errors.New("boom")
	var calls int

	fail := func(context.Context) (int, error) {
		calls++
		return 0, boom
	}
	if _, _, err := m.Do(context.Background(), "k", fail); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, _, err := m.Do(context.Background(), "k", fail); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Errorf("failed fetch was cached: calls = %d", calls)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestMemo_SingleFlight(t *testing.T) {
	m := NewMemo[int]("test", Config{}, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	fn := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := m.Do(context.Background(), "k", fn)
			if err != nil {
				t.Error(err)
			}
			results[i] = v
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fn ran %d times, want 1", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("result %d = %d, want 42", i, v)
		}
	}
}

func TestMemo_Forget(t *testing.T) {
	m := NewMemo[int]("test", Config{}, nil)
	var calls int
	fn := func(context.Context) (int, error) { calls++; return calls, nil }

	m.Do(context.Background(), "k", fn)
	m.Forget("k")
	v, hit, _ := m.Do(context.Background(), "k", fn)
	if hit || v != 2 {
		t.Errorf("after Forget: v=%d hit=%v, want 2 false", v, hit)
	}
}

func TestKeyAndSecret(t *testing.T) {
	if got := Key(2024, "52133"); got != "2024|52133" {
		t.Errorf("Key = %q", got)
	}
	a, b := Secret("key-one"), Secret("key-two")
	if a == b {
		t.Error("distinct secrets share a digest")
	}
	if a != Secret("key-one") {
		t.Error("digest is not stable")
	}
	if len(a) != 16 {
		t.Errorf("digest length = %d, want 16", len(a))
	}
}
