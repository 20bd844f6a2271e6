package upstream_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stashsync/internal/adapters/upstream"
	"go.trai.ch/stashsync/internal/core/domain"
)

func usd(s string) domain.Money {
	return domain.MustParseMoney(s, "USD")
}

func newSimulator(t *testing.T, opts ...upstream.Option) *upstream.Simulator {
	t.Helper()
	sim, err := upstream.New(opts...)
	require.NoError(t, err)
	return sim
}

func fetch[T any](t *testing.T, sim *upstream.Simulator, key domain.CacheKey) T {
	t.Helper()
	v, err := sim.Fetch(context.Background(), key)
	require.NoError(t, err)
	out, ok := v.(T)
	require.Truef(t, ok, "unexpected type %T", v)
	return out
}

func stashItem(t *testing.T, sim *upstream.Simulator, id string) domain.StashItem {
	t.Helper()
	s := fetch[domain.Stash](t, sim, domain.ResourceKey(domain.ResourceStash))
	i := s.Item(id)
	require.GreaterOrEqual(t, i, 0, "stash item %s", id)
	return s.Items[i]
}

func TestFetch_EveryResource(t *testing.T) {
	sim := newSimulator(t)
	for _, r := range domain.AllResources() {
		v, err := sim.Fetch(context.Background(), domain.ResourceKey(r))
		require.NoError(t, err, r)
		assert.NotNil(t, v, r)
	}

	_, err := sim.Fetch(context.Background(), domain.ResourceKey("bogus"))
	assert.ErrorContains(t, err, domain.ErrNoFetcher.Error())
	assert.Equal(t, len(domain.AllResources())+1, sim.Fetches())
}

func TestFetch_MonthNoteVariants(t *testing.T) {
	sim := newSimulator(t)

	jan := fetch[domain.MonthNote](t, sim, domain.NewCacheKey(domain.ResourceMonthNotes, map[string]string{"month": "2026-01"}))
	assert.Equal(t, "Paid insurance &amp; renewed lease", jan.RawBody)

	feb := fetch[domain.MonthNote](t, sim, domain.NewCacheKey(domain.ResourceMonthNotes, map[string]string{"month": "2026-02"}))
	assert.Equal(t, domain.MonthNote{Month: "2026-02"}, feb)
}

func TestFetch_ReturnsCopies(t *testing.T) {
	sim := newSimulator(t)
	key := domain.ResourceKey(domain.ResourceStash)

	s := fetch[domain.Stash](t, sim, key)
	s.Items[0].RawName = "changed"

	assert.Equal(t, "Lisbon Trip", stashItem(t, sim, "trip").RawName)
}

func TestWrite_AllocateFunds(t *testing.T) {
	sim := newSimulator(t)
	ctx := context.Background()

	_, err := sim.Write(ctx, domain.AllocateFundsRequest{StashID: "trip", Amount: usd("250.75")})
	require.NoError(t, err)

	assert.True(t, stashItem(t, sim, "trip").PlannedBudget.Equal(usd("250.75")))
	avail := fetch[domain.AvailableToStash](t, sim, domain.ResourceKey(domain.ResourceAvailableToStash))
	assert.Equal(t, "589.5", avail.Amount.Amount.String())
}

func TestWrite_AllocateFundsBatchIsAtomic(t *testing.T) {
	sim := newSimulator(t)

	_, err := sim.Write(context.Background(), domain.AllocateFundsBatchRequest{Allocations: []domain.AllocateFundsRequest{
		{StashID: "trip", Amount: usd("10")},
		{StashID: "missing", Amount: usd("10")},
	}})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrItemNotFound.Error())
	assert.True(t, stashItem(t, sim, "trip").PlannedBudget.Equal(usd("200")))
}

func TestWrite_Operations(t *testing.T) {
	date := domain.MustParseDate("2026-12-01")

	tests := []struct {
		name  string
		req   domain.WriteRequest
		check func(t *testing.T, sim *upstream.Simulator)
	}{
		{
			name: "toggle item",
			req:  domain.ToggleItemRequest{ItemID: "domain-renewal", Enabled: true},
			check: func(t *testing.T, sim *upstream.Simulator) {
				d := fetch[domain.Dashboard](t, sim, domain.ResourceKey(domain.ResourceDashboard))
				assert.True(t, d.Items[d.Item("domain-renewal")].Enabled)
			},
		},
		{
			name: "set recurring budget",
			req:  domain.SetRecurringBudgetRequest{ItemID: "car-insurance", Amount: usd("100")},
			check: func(t *testing.T, sim *upstream.Simulator) {
				d := fetch[domain.Dashboard](t, sim, domain.ResourceKey(domain.ResourceDashboard))
				assert.True(t, d.Items[d.Item("car-insurance")].PlannedBudget.Equal(usd("100")))
				avail := fetch[domain.AvailableToStash](t, sim, domain.ResourceKey(domain.ResourceAvailableToStash))
				assert.True(t, avail.Amount.Equal(usd("690.25")))
			},
		},
		{
			name: "create stash escapes the name",
			req:  domain.CreateStashRequest{ID: "bike", Name: "Bike & Helmet", TargetAmount: usd("900"), TargetDate: date},
			check: func(t *testing.T, sim *upstream.Simulator) {
				it := stashItem(t, sim, "bike")
				assert.Equal(t, "Bike &amp; Helmet", it.RawName)
				assert.Equal(t, 2, it.SortOrder)
			},
		},
		{
			name: "update stash",
			req:  domain.UpdateStashRequest{ID: "trip", Name: "Porto Trip", TargetAmount: usd("2000"), TargetDate: date},
			check: func(t *testing.T, sim *upstream.Simulator) {
				it := stashItem(t, sim, "trip")
				assert.Equal(t, "Porto Trip", it.RawName)
				assert.Equal(t, date, it.TargetDate)
			},
		},
		{
			name: "delete stash returns budget",
			req:  domain.DeleteStashRequest{ID: "trip"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				s := fetch[domain.Stash](t, sim, domain.ResourceKey(domain.ResourceStash))
				require.Len(t, s.Items, 1)
				assert.Equal(t, 0, s.Items[0].SortOrder)
				avail := fetch[domain.AvailableToStash](t, sim, domain.ResourceKey(domain.ResourceAvailableToStash))
				assert.True(t, avail.Amount.Equal(usd("840.25")))
			},
		},
		{
			name: "archive stash",
			req:  domain.ArchiveStashRequest{ID: "trip"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				assert.True(t, stashItem(t, sim, "trip").Archived)
			},
		},
		{
			name: "unarchive stash",
			req:  domain.UnarchiveStashRequest{ID: "trip"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				assert.False(t, stashItem(t, sim, "trip").Archived)
			},
		},
		{
			name: "reorder stash",
			req:  domain.ReorderStashRequest{IDs: []string{"laptop"}},
			check: func(t *testing.T, sim *upstream.Simulator) {
				s := fetch[domain.Stash](t, sim, domain.ResourceKey(domain.ResourceStash))
				assert.Equal(t, "laptop", s.Items[0].ID)
				assert.Equal(t, 1, s.Items[1].SortOrder)
			},
		},
		{
			name: "complete stash",
			req:  domain.CompleteStashRequest{ID: "trip"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				it := stashItem(t, sim, "trip")
				assert.True(t, it.Archived)
				assert.True(t, it.PlannedBudget.IsZero())
			},
		},
		{
			name: "skip pending",
			req:  domain.SkipPendingRequest{ID: "bm-desk"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				p := fetch[domain.PendingBookmarks](t, sim, domain.ResourceKey(domain.ResourcePendingBookmarks))
				assert.Empty(t, p.Items)
			},
		},
		{
			name: "convert pending",
			req:  domain.ConvertPendingRequest{ID: "bm-desk", StashID: "desk", TargetAmount: usd("700"), TargetDate: date},
			check: func(t *testing.T, sim *upstream.Simulator) {
				assert.Equal(t, "Standing Desk &gt; Oak", stashItem(t, sim, "desk").RawName)
				p := fetch[domain.PendingBookmarks](t, sim, domain.ResourceKey(domain.ResourcePendingBookmarks))
				assert.Empty(t, p.Items)
			},
		},
		{
			name: "link goal",
			req:  domain.LinkGoalRequest{StashID: "trip", GoalID: "goal-travel"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				assert.Equal(t, "goal-travel", stashItem(t, sim, "trip").GoalID)
			},
		},
		{
			name: "save month note records a revision",
			req:  domain.SaveMonthNoteRequest{Month: "2026-01", Body: "Rent <late>"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				n := fetch[domain.MonthNote](t, sim, domain.NewCacheKey(domain.ResourceMonthNotes, map[string]string{"month": "2026-01"}))
				assert.Equal(t, "Rent &lt;late&gt;", n.RawBody)
				h := fetch[domain.NoteHistory](t, sim, domain.ResourceKey(domain.ResourceNoteHistory))
				require.Len(t, h.Revisions, 1)
				assert.Equal(t, "Paid insurance &amp; renewed lease", h.Revisions[0].RawBody)
			},
		},
		{
			name: "delete month note",
			req:  domain.DeleteMonthNoteRequest{Month: "2026-01"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				all := fetch[domain.AllNotes](t, sim, domain.ResourceKey(domain.ResourceAllNotes))
				assert.Empty(t, all.Notes)
			},
		},
		{
			name: "update settings",
			req:  domain.UpdateSettingsRequest{Settings: domain.Settings{PollIntervalMs: 60000, Currency: "EUR"}},
			check: func(t *testing.T, sim *upstream.Simulator) {
				s := fetch[domain.Settings](t, sim, domain.ResourceKey(domain.ResourceSettings))
				assert.Equal(t, "EUR", s.Currency)
			},
		},
		{
			name: "update stash config",
			req:  domain.UpdateStashConfigRequest{Config: domain.StashConfig{IncludeExpectedIncome: true, Buffer: usd("0")}},
			check: func(t *testing.T, sim *upstream.Simulator) {
				c := fetch[domain.StashConfig](t, sim, domain.ResourceKey(domain.ResourceStashConfig))
				assert.True(t, c.IncludeExpectedIncome)
			},
		},
		{
			name: "add to rollup",
			req:  domain.AddToRollupRequest{ItemID: "car-insurance"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				d := fetch[domain.Dashboard](t, sim, domain.ResourceKey(domain.ResourceDashboard))
				assert.True(t, d.RollupBudget.Equal(usd("180")))
			},
		},
		{
			name: "remove from rollup",
			req:  domain.RemoveFromRollupRequest{ItemID: "streaming"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				d := fetch[domain.Dashboard](t, sim, domain.ResourceKey(domain.ResourceDashboard))
				assert.True(t, d.RollupBudget.IsZero())
				assert.False(t, d.Items[d.Item("streaming")].InRollup)
			},
		},
		{
			name: "link category",
			req:  domain.LinkCategoryRequest{ItemID: "domain-renewal", CategoryID: "cat-fun"},
			check: func(t *testing.T, sim *upstream.Simulator) {
				d := fetch[domain.Dashboard](t, sim, domain.ResourceKey(domain.ResourceDashboard))
				assert.Equal(t, "cat-fun", d.Items[d.Item("domain-renewal")].CategoryID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSimulator(t)
			_, err := sim.Write(context.Background(), tt.req)
			require.NoError(t, err)
			tt.check(t, sim)
			assert.Equal(t, []domain.WriteOperation{tt.req.Operation()}, sim.Writes())
		})
	}
}

func TestWrite_UnknownTargets(t *testing.T) {
	reqs := []domain.WriteRequest{
		domain.ToggleItemRequest{ItemID: "nope"},
		domain.UpdateStashRequest{ID: "nope"},
		domain.SkipPendingRequest{ID: "nope"},
		domain.LinkGoalRequest{StashID: "trip", GoalID: "nope"},
		domain.LinkCategoryRequest{ItemID: "streaming", CategoryID: "nope"},
		domain.DeleteMonthNoteRequest{Month: "1999-01"},
	}
	for _, req := range reqs {
		_, err := newSimulator(t).Write(context.Background(), req)
		assert.ErrorContains(t, err, domain.ErrItemNotFound.Error(), req.Operation())
	}

	_, err := newSimulator(t).Write(context.Background(), domain.AllocateFundsRequest{StashID: "trip", Amount: usd("-1")})
	assert.ErrorContains(t, err, domain.ErrInvalidAmount.Error())
}

func TestWrite_SyncStampsDashboard(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	sim := newSimulator(t, upstream.WithClock(func() time.Time { return at }))

	_, err := sim.Write(context.Background(), domain.SyncRequest{})
	require.NoError(t, err)

	d := fetch[domain.Dashboard](t, sim, domain.ResourceKey(domain.ResourceDashboard))
	assert.Equal(t, at, d.LastSync)
}

func TestFailNext(t *testing.T) {
	sim := newSimulator(t)
	sim.FailNext(domain.OpAllocateFunds, domain.ErrUpstreamUnavailable)

	_, err := sim.Write(context.Background(), domain.AllocateFundsRequest{StashID: "trip", Amount: usd("1")})
	assert.ErrorContains(t, err, domain.ErrUpstreamUnavailable.Error())
	assert.True(t, stashItem(t, sim, "trip").PlannedBudget.Equal(usd("200")), "failed write is not applied")

	_, err = sim.Write(context.Background(), domain.AllocateFundsRequest{StashID: "trip", Amount: usd("1")})
	require.NoError(t, err, "failure applies to one write only")
}

func TestFailAfterCommit(t *testing.T) {
	sim := newSimulator(t)
	sim.FailAfterCommit(domain.OpArchiveStash, context.DeadlineExceeded)

	_, err := sim.Write(context.Background(), domain.ArchiveStashRequest{ID: "trip"})
	require.ErrorIs(t, err, domain.ErrWriteCommitted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, stashItem(t, sim, "trip").Archived)
}

func TestFailFetches(t *testing.T) {
	sim := newSimulator(t)
	boom := errors.New("boom")
	sim.FailFetches(domain.ResourceStash, boom)

	_, err := sim.Fetch(context.Background(), domain.ResourceKey(domain.ResourceStash))
	require.ErrorIs(t, err, boom)

	sim.FailFetches(domain.ResourceStash, nil)
	_, err = sim.Fetch(context.Background(), domain.ResourceKey(domain.ResourceStash))
	require.NoError(t, err)
}

func TestStaleReadWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := newSimulator(t, upstream.WithStaleReadWindow(5*time.Second))
		ctx := context.Background()

		_, err := sim.Write(ctx, domain.AllocateFundsRequest{StashID: "trip", Amount: usd("300")})
		require.NoError(t, err)

		assert.True(t, stashItem(t, sim, "trip").PlannedBudget.Equal(usd("200")), "read back stale")

		peek, err := sim.Peek(domain.ResourceKey(domain.ResourceStash))
		require.NoError(t, err)
		s := peek.(domain.Stash)
		assert.True(t, s.Items[s.Item("trip")].PlannedBudget.Equal(usd("300")))

		time.Sleep(5 * time.Second)
		assert.True(t, stashItem(t, sim, "trip").PlannedBudget.Equal(usd("300")))
	})
}

func TestLatency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := newSimulator(t, upstream.WithLatency(time.Second))

		start := time.Now()
		_, err := sim.Fetch(context.Background(), domain.ResourceKey(domain.ResourceSettings))
		require.NoError(t, err)
		assert.Equal(t, time.Second, time.Since(start))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err = sim.Write(ctx, domain.SyncRequest{})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, sim.Writes())
	})
}
