package querycache_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stashsync/internal/adapters/logger"
	"go.trai.ch/stashsync/internal/adapters/querycache"
	"go.trai.ch/stashsync/internal/adapters/telemetry"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/stashsync/internal/engine/derive"
)

type catalog struct{}

func (catalog) Config(r domain.ResourceName) (domain.ResourceConfig, bool) {
	switch r {
	case domain.ResourceStash:
		return domain.ResourceConfig{FreshnessWindow: time.Minute, RetentionWindow: 10 * time.Minute, Pollable: true}, true
	case domain.ResourceSettings, domain.ResourceMonthNotes:
		return domain.ResourceConfig{FreshnessWindow: time.Minute}, true
	default:
		return domain.ResourceConfig{}, false
	}
}

func (catalog) PollConfig() domain.PollConfig {
	return domain.PollConfig{
		Interval:          30 * time.Second,
		PollableResources: []domain.ResourceName{domain.ResourceStash},
	}
}

type fakeUpstream struct {
	mu     sync.Mutex
	calls  map[domain.CacheKey]int
	values map[domain.ResourceName]any
	block  chan struct{}
	err    error
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		calls:  make(map[domain.CacheKey]int),
		values: make(map[domain.ResourceName]any),
	}
}

func (f *fakeUpstream) Fetch(_ context.Context, key domain.CacheKey) (any, error) {
	f.mu.Lock()
	f.calls[key]++
	v, block, err := f.values[key.Resource], f.block, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return v, err
}

func (f *fakeUpstream) Write(context.Context, domain.WriteRequest) (any, error) {
	return nil, nil
}

func (f *fakeUpstream) set(r domain.ResourceName, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[r] = v
}

func (f *fakeUpstream) count(key domain.CacheKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func discardLogger() ports.Logger {
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(io.Discard)
	return lg
}

func newController(up ports.Upstream, opts ...querycache.Option) *querycache.Controller {
	return querycache.New(catalog{}, up, telemetry.NewNoOpTracer(), discardLogger(), opts...)
}

var (
	stashKey    = domain.ResourceKey(domain.ResourceStash)
	settingsKey = domain.ResourceKey(domain.ResourceSettings)
)

func usd(s string) domain.Money {
	return domain.MustParseMoney(s, "USD")
}

func stashOf(balance string) domain.Stash {
	return domain.Stash{Items: []domain.StashItem{
		{ID: "trip", RawName: "Trip &amp; Hotel", TargetAmount: usd("1200"), Balance: usd(balance)},
	}}
}

func TestEnsure_ServesFreshValueUntilWindowEnds(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		c := newController(up)
		defer c.Stop()
		ctx := context.Background()

		v, err := c.Ensure(ctx, stashKey)
		require.NoError(t, err)
		assert.Equal(t, stashOf("10"), v)

		_, err = c.Ensure(ctx, stashKey)
		require.NoError(t, err)
		assert.Equal(t, 1, up.count(stashKey))
		assert.True(t, c.IsFresh(stashKey))

		time.Sleep(time.Minute)
		assert.False(t, c.IsFresh(stashKey))

		_, err = c.Ensure(ctx, stashKey)
		require.NoError(t, err)
		assert.Equal(t, 2, up.count(stashKey))
	})
}

func TestEnsure_DeduplicatesConcurrentFetches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		up.block = make(chan struct{})
		c := newController(up)
		defer c.Stop()

		var wg sync.WaitGroup
		results := make([]any, 3)
		for i := range results {
			wg.Go(func() {
				v, err := c.Ensure(context.Background(), stashKey)
				assert.NoError(t, err)
				results[i] = v
			})
		}
		synctest.Wait()
		assert.Equal(t, 1, up.count(stashKey))

		close(up.block)
		wg.Wait()
		for _, v := range results {
			assert.Equal(t, stashOf("10"), v)
		}
	})
}

func TestCancel_DiscardsLateFetchResult(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		up.block = make(chan struct{})
		c := newController(up)
		defer c.Stop()
		ctx := context.Background()

		var got any
		var wg sync.WaitGroup
		wg.Go(func() {
			v, err := c.Ensure(ctx, stashKey)
			assert.NoError(t, err)
			got = v
		})
		synctest.Wait()

		require.NoError(t, c.Cancel(ctx, domain.ResourceKey(domain.ResourceStash)))
		c.Set(stashKey, stashOf("99"))

		close(up.block)
		wg.Wait()

		assert.Equal(t, stashOf("99"), got)
		v, ok := c.Get(stashKey)
		require.True(t, ok)
		assert.Equal(t, stashOf("99"), v)
	})
}

func TestCancel_DoneContext(t *testing.T) {
	c := newController(newFakeUpstream())
	defer c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Cancel(ctx, stashKey), context.Canceled)
}

func TestSet_AppliesTransform(t *testing.T) {
	c := newController(newFakeUpstream(), querycache.WithTransform(derive.Recompute))
	defer c.Stop()

	c.Set(stashKey, stashOf("300"))

	v, ok := c.Get(stashKey)
	require.True(t, ok)
	item := v.(domain.Stash).Items[0]
	assert.Equal(t, "Trip & Hotel", item.Name)
	assert.Equal(t, "0.25", item.Progress.String())
}

func TestInvalidate_RefetchesOnlySubscribedEntries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		up.set(domain.ResourceSettings, domain.Settings{Currency: "USD"})
		c := newController(up)
		defer c.Stop()
		ctx := context.Background()

		_, err := c.Ensure(ctx, stashKey)
		require.NoError(t, err)
		_, err = c.Ensure(ctx, settingsKey)
		require.NoError(t, err)

		var mu sync.Mutex
		var seen []any
		unsubscribe := c.Subscribe(stashKey, func(v any) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, v)
		})
		defer unsubscribe()

		c.Invalidate(domain.ResourceKey(domain.ResourceStash), ports.InvalidateOptions{RefetchNow: true})
		c.Invalidate(settingsKey, ports.InvalidateOptions{RefetchNow: true})
		synctest.Wait()

		assert.Equal(t, 2, up.count(stashKey))
		assert.Equal(t, 1, up.count(settingsKey))
		assert.True(t, c.IsFresh(stashKey))
		assert.False(t, c.IsFresh(settingsKey))

		mu.Lock()
		assert.Empty(t, seen, "unchanged refetch must not notify")
		mu.Unlock()

		up.set(domain.ResourceStash, stashOf("20"))
		c.Invalidate(stashKey, ports.InvalidateOptions{RefetchNow: true})
		synctest.Wait()

		mu.Lock()
		assert.Equal(t, []any{stashOf("20")}, seen)
		mu.Unlock()
	})
}

func TestInvalidate_RefetchAbandonsOlderFetch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		c := newController(up)
		defer c.Stop()

		_, err := c.Ensure(context.Background(), stashKey)
		require.NoError(t, err)
		unsubscribe := c.Subscribe(stashKey, func(any) {})
		defer unsubscribe()

		release := make(chan struct{})
		up.mu.Lock()
		up.block = release
		up.mu.Unlock()

		// A refetch reads "10" upstream and stalls before storing it.
		c.Invalidate(stashKey, ports.InvalidateOptions{RefetchNow: true})
		synctest.Wait()

		// A write lands upstream and is dispatched while that fetch is stalled.
		up.set(domain.ResourceStash, stashOf("20"))
		c.Invalidate(stashKey, ports.InvalidateOptions{RefetchNow: true})
		synctest.Wait()

		close(release)
		synctest.Wait()

		assert.Equal(t, 3, up.count(stashKey), "the second invalidation must go upstream again")
		v, ok := c.Get(stashKey)
		require.True(t, ok)
		assert.Equal(t, stashOf("20"), v)
		assert.True(t, c.IsFresh(stashKey))
	})
}

func TestInvalidate_MarkStaleDoesNotFetch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceMonthNotes, domain.MonthNote{Month: "2026-01"})
		c := newController(up)
		defer c.Stop()

		key := domain.NewCacheKey(domain.ResourceMonthNotes, map[string]string{"month": "2026-01"})
		_, err := c.Ensure(context.Background(), key)
		require.NoError(t, err)
		unsubscribe := c.Subscribe(key, func(any) {})
		defer unsubscribe()

		c.Invalidate(domain.ResourceKey(domain.ResourceMonthNotes), ports.InvalidateOptions{RefetchNow: false})
		synctest.Wait()

		assert.False(t, c.IsFresh(key))
		assert.Equal(t, 1, up.count(key))
	})
}

func TestEnsure_FetchError(t *testing.T) {
	up := newFakeUpstream()
	up.err = errors.New("connection reset")
	c := newController(up)
	defer c.Stop()

	_, err := c.Ensure(context.Background(), stashKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFetchFailed.Error())
	assert.ErrorIs(t, err, up.err)

	_, ok := c.Get(stashKey)
	assert.False(t, ok)
}

func TestPoll_RefreshesSubscribedPollableEntries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		up.set(domain.ResourceSettings, domain.Settings{})
		c := newController(up)
		defer c.Stop()

		defer c.Subscribe(stashKey, func(any) {})()
		defer c.Subscribe(settingsKey, func(any) {})()

		assert.Equal(t, 1, c.Poll(context.Background()))
		assert.Equal(t, 1, up.count(stashKey))
		assert.Zero(t, up.count(settingsKey))
	})
}

func TestCollect_EvictsAfterRetention(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		up.set(domain.ResourceSettings, domain.Settings{})
		c := newController(up)
		defer c.Stop()
		ctx := context.Background()

		_, err := c.Ensure(ctx, stashKey)
		require.NoError(t, err)
		_, err = c.Ensure(ctx, settingsKey)
		require.NoError(t, err)

		time.Sleep(domain.DefaultRetention)
		assert.Equal(t, 1, c.Collect(), "settings uses the default retention")

		entries := c.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, stashKey, entries[0].Key)

		unsubscribe := c.Subscribe(stashKey, func(any) {})
		time.Sleep(time.Hour)
		assert.Zero(t, c.Collect(), "subscribed entries are kept")

		unsubscribe()
		time.Sleep(10 * time.Minute)
		assert.Equal(t, 1, c.Collect())
		assert.Empty(t, c.Entries())
	})
}

func TestSetPollInterval_Bounds(t *testing.T) {
	c := newController(newFakeUpstream())
	defer c.Stop()

	assert.Equal(t, 30*time.Second, c.PollInterval())
	require.NoError(t, c.SetPollInterval(querycache.MaxPollInterval))
	assert.Equal(t, querycache.MaxPollInterval, c.PollInterval())

	for _, d := range []time.Duration{0, -time.Second, querycache.MaxPollInterval + time.Millisecond} {
		err := c.SetPollInterval(d)
		assert.ErrorContains(t, err, domain.ErrInvalidPollInterval.Error())
	}
}

func TestStart_PollsOnInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		up := newFakeUpstream()
		up.set(domain.ResourceStash, stashOf("10"))
		c := newController(up)
		ctx := context.Background()

		defer c.Subscribe(stashKey, func(any) {})()
		_, err := c.Ensure(ctx, stashKey)
		require.NoError(t, err)

		c.Start(ctx)
		time.Sleep(30 * time.Second)
		synctest.Wait()
		assert.Equal(t, 2, up.count(stashKey))

		require.NoError(t, c.SetPollInterval(10*time.Second))
		synctest.Wait()
		time.Sleep(10 * time.Second)
		synctest.Wait()
		assert.Equal(t, 3, up.count(stashKey))

		c.Stop()
	})
}
