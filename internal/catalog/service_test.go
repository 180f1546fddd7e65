package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/logmon/internal/config"
	"github.com/five82/logmon/internal/discovery"
)

type fakeDiscoverer struct {
	mu       sync.Mutex
	results  []discovery.Result
	err      error
	calls    int
	inFlight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
}

func (f *fakeDiscoverer) Discover(ctx context.Context, _ []string) (discovery.Result, error) {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return discovery.Result{}, f.err
	}
	res := f.results[f.calls%len(f.results)]
	f.calls++
	return res, nil
}

func entry(path, tag string) discovery.Entry {
	return discovery.Entry{
		Filename:     filepath.Base(path),
		Path:         path,
		AbsolutePath: "/srv/" + path,
		Tag:          tag,
		Name:         "svc",
	}
}

func TestService_StartsEmpty(t *testing.T) {
	svc := NewServiceWithDiscoverer(config.Default("/srv"), &fakeDiscoverer{}, nil)

	cat := svc.Catalog()
	require.NotNil(t, cat)
	assert.Equal(t, 0, cat.Len())
	assert.NotNil(t, cat.Entries())
	_, ok := svc.Resolve("anything.log")
	assert.False(t, ok)
}

func TestService_RefreshPublishesNewCatalog(t *testing.T) {
	fake := &fakeDiscoverer{results: []discovery.Result{
		{Entries: []discovery.Entry{entry("a/x.1.api.log", "api")}},
		{Entries: []discovery.Entry{entry("b/y.1.db.log", "db"), entry("b/z.1.db.log", "db")}},
	}}
	svc := NewServiceWithDiscoverer(config.Default("/srv"), fake, nil)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.GeneratedAt.IsZero())

	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Same(t, second, svc.Catalog())

	// The replaced catalog is untouched.
	assert.Equal(t, 1, first.Len())
	_, ok := svc.Resolve("a/x.1.api.log")
	assert.False(t, ok, "refresh replaces rather than merges")
}

func TestService_FailedRefreshKeepsPrevious(t *testing.T) {
	fake := &fakeDiscoverer{results: []discovery.Result{{Entries: []discovery.Entry{entry("x.1.y.log", "y")}}}}
	svc := NewServiceWithDiscoverer(config.Default("/srv"), fake, nil)

	prev, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	fake.err = errors.New("boom")
	got, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, prev, got)
	assert.Same(t, prev, svc.Catalog())
}

func TestService_ResolvePrefersWebPathThenFilename(t *testing.T) {
	fake := &fakeDiscoverer{results: []discovery.Result{{Entries: []discovery.Entry{
		entry("one/app.1.web.log", "web"),
		entry("app.1.web.log", "web"),
		entry("two/app.1.web.log", "web"),
	}}}}
	svc := NewServiceWithDiscoverer(config.Default("/srv"), fake, nil)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	got, ok := svc.Resolve("app.1.web.log")
	require.True(t, ok)
	assert.Equal(t, "app.1.web.log", got.Path, "exact web path beats earlier filename match")

	got, ok = svc.Resolve("two/app.1.web.log")
	require.True(t, ok)
	assert.Equal(t, "/srv/two/app.1.web.log", got.AbsolutePath)

	fake.results = []discovery.Result{{Entries: []discovery.Entry{
		entry("one/app.1.web.log", "web"),
		entry("two/app.1.web.log", "web"),
	}}}
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	got, ok = svc.Resolve("app.1.web.log")
	require.True(t, ok)
	assert.Equal(t, "one/app.1.web.log", got.Path, "first filename match in catalog order")
}

func TestCatalog_TagsInFirstSeenOrder(t *testing.T) {
	cat := newCatalog("id", time.Now(), discovery.Result{Entries: []discovery.Entry{
		entry("b.1.zeta.log", "zeta"),
		entry("a.1.alpha.log", "alpha"),
		entry("c.2.zeta.log", "zeta"),
	}})

	assert.Equal(t, []TagCount{{Tag: "zeta", Count: 2}, {Tag: "alpha", Count: 1}}, cat.Tags())
	zeta := cat.Lookup("zeta")
	require.Len(t, zeta, 2)
	assert.Equal(t, "b.1.zeta.log", zeta[0].Path)
	assert.Nil(t, cat.Lookup("missing"))
}

func TestCatalog_EntriesAreCopies(t *testing.T) {
	src := []discovery.Entry{entry("a.1.api.log", "api"), entry("b.1.db.log", "db")}
	cat := newCatalog("id", time.Now(), discovery.Result{Entries: src})

	src[0].Tag = "changed"
	got := cat.Entries()
	got[1].Tag = "changed"
	got = append(got[:0], entry("x.1.x.log", "x"))

	again := cat.Entries()
	require.Len(t, again, 2)
	assert.Equal(t, "api", again[0].Tag)
	assert.Equal(t, "db", again[1].Tag)
	e, ok := cat.Resolve("a.1.api.log")
	require.True(t, ok)
	assert.Equal(t, "api", e.Tag)
	assert.Len(t, got, 1)
}

func TestService_RefreshIsSerialized(t *testing.T) {
	fake := &fakeDiscoverer{
		results: []discovery.Result{{Entries: []discovery.Entry{entry("x.1.y.log", "y")}}},
		delay:   10 * time.Millisecond,
	}
	svc := NewServiceWithDiscoverer(config.Default("/srv"), fake, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Refresh(context.Background())
		}()
	}
	wg.Wait()
	assert.False(t, fake.overlap.Load(), "discovery runs overlapped")
	assert.Equal(t, 8, fake.calls)
}

func TestService_ReadersSeeCompleteCatalogs(t *testing.T) {
	small := discovery.Result{Entries: []discovery.Entry{entry("a.1.x.log", "x")}}
	large := discovery.Result{Entries: []discovery.Entry{
		entry("a.1.x.log", "x"), entry("b.1.x.log", "x"), entry("c.1.x.log", "x"),
	}}
	fake := &fakeDiscoverer{results: []discovery.Result{small, large}}
	svc := NewServiceWithDiscoverer(config.Default("/srv"), fake, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			_, _ = svc.Refresh(ctx)
		}
	}()

	for ctx.Err() == nil {
		cat := svc.Catalog()
		n := cat.Len()
		if n != 0 && n != 1 && n != 3 {
			t.Fatalf("observed partial catalog with %d entries", n)
		}
		total := 0
		for _, tc := range cat.Tags() {
			total += tc.Count
		}
		if total != n {
			t.Fatalf("tag counts %d disagree with entries %d", total, n)
		}
	}
	wg.Wait()
}

func TestService_RefreshOnRealFilesystemIsIdempotent(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"api.1.errors.log", "nested/web.2.access.log"} {
		path := filepath.Join(base, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o644))
	}
	svc := NewService(config.Default(base), nil)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, first.Len())
	assert.ElementsMatch(t, first.Entries(), second.Entries())
	assert.Equal(t, first.Tags(), second.Tags())
}

func TestService_ConfigIsACopy(t *testing.T) {
	svc := NewServiceWithDiscoverer(config.Default("/srv"), &fakeDiscoverer{}, nil)

	cfg := svc.Config()
	cfg.ScanPaths[0] = "mutated"
	cfg.LogPatterns[0].Regex = "mutated"

	again := svc.Config()
	assert.Equal(t, ".", again.ScanPaths[0])
	assert.NotEqual(t, "mutated", again.LogPatterns[0].Regex)
}
