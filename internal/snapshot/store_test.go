package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yanizio/adept-locale/internal/cache"
	"github.com/yanizio/adept-locale/internal/site"
)

func TestStore_MissThenHit(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()
	r := fixture()
	st := NewStore(mem, r)

	if _, err := st.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if r.domainHits != 1 {
		t.Fatalf("storage read %d times, want 1", r.domainHits)
	}
	if _, ok, _ := mem.Get(ctx, Namespace+":"+Key); !ok {
		t.Fatal("entry not stored under namespaced key")
	}
}

func TestStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()
	r := fixture()
	st := NewStore(mem, r)

	if _, err := st.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if err := st.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	r.locales[1].IsDefault = false
	r.locales[2].IsDefault = true

	s, err := st.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.DefaultLocale() != "de" {
		t.Fatalf("stale snapshot after invalidate: default %q", s.DefaultLocale())
	}
	if r.domainHits != 2 {
		t.Fatalf("storage read %d times, want 2", r.domainHits)
	}
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()
	st := NewStore(mem, fixture(), WithTTL(time.Millisecond))
	if st.TTL() != time.Millisecond {
		t.Fatalf("TTL = %v", st.TTL())
	}
	if NewStore(mem, fixture(), WithTTL(0)).TTL() != DefaultTTL {
		t.Fatal("zero ttl should keep the default")
	}
	if _, err := st.Get(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := mem.Get(ctx, Namespace+":"+Key); ok {
		t.Fatal("entry outlived its ttl")
	}
}

func TestStore_BuildErrorNotCached(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()
	r := &fakeReader{}
	st := NewStore(mem, r)

	if _, err := st.Get(ctx); !errors.Is(err, ErrEmptyDomainSet) {
		t.Fatalf("want ErrEmptyDomainSet, got %v", err)
	}
	if _, ok, _ := mem.Get(ctx, Namespace+":"+Key); ok {
		t.Fatal("failed build was cached")
	}
	*r = *fixture()
	if _, err := st.Get(ctx); err != nil {
		t.Fatalf("recovery: %v", err)
	}
}

func TestStore_CorruptEntryRebuilds(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()
	_ = mem.Set(ctx, Namespace+":"+Key, []byte("{not json"), 0)

	r := fixture()
	s, err := NewStore(mem, r).Get(ctx)
	if err != nil || s.DefaultLocale() != "en" {
		t.Fatalf("Get = %v, %v", s, err)
	}
	if r.domainHits != 1 {
		t.Fatal("corrupt entry did not trigger a rebuild")
	}
}

// countingReader holds ListDomains until released so concurrent callers
// pile up behind the first build.
type countingReader struct {
	*fakeReader
	mu      sync.Mutex
	n       int
	release chan struct{}
}

func (c *countingReader) ListDomains(ctx context.Context) ([]site.Domain, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	<-c.release
	return c.fakeReader.domains, nil
}

func (c *countingReader) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestStore_ConcurrentMissesBuildOnce(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()

	r := &countingReader{fakeReader: fixture(), release: make(chan struct{})}
	st := NewStore(mem, r)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Get(ctx)
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(r.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := r.calls(); n != 1 {
		t.Fatalf("storage read %d times, want 1", n)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStore_InvalidateDuringBuildIsNotWrittenBack(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()

	r := &countingReader{fakeReader: fixture(), release: make(chan struct{})}
	st := NewStore(mem, r)

	done := make(chan error, 1)
	go func() {
		_, err := st.Get(ctx)
		done <- err
	}()
	waitFor(t, func() bool { return r.calls() == 1 })

	if err := st.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	close(r.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := mem.Get(ctx, Namespace+":"+Key); ok {
		t.Fatal("build started before Invalidate was cached")
	}

	if _, err := st.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if r.calls() != 2 {
		t.Fatalf("storage read %d times, want 2", r.calls())
	}
	if _, ok, _ := mem.Get(ctx, Namespace+":"+Key); !ok {
		t.Fatal("fresh build not cached")
	}
}

func TestStore_RebuildDoesNotJoinGet(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	defer mem.Close()

	r := &countingReader{fakeReader: fixture(), release: make(chan struct{})}
	st := NewStore(mem, r)

	errs := make(chan error, 2)
	go func() {
		_, err := st.Get(ctx)
		errs <- err
	}()
	waitFor(t, func() bool { return r.calls() == 1 })

	go func() {
		_, err := st.Rebuild(ctx)
		errs <- err
	}()
	waitFor(t, func() bool { return r.calls() == 2 })

	close(r.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
}
