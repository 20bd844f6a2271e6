package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stashsync/cmd/stashsync/commands"
	"go.trai.ch/stashsync/internal/adapters/declarations"
	"go.trai.ch/stashsync/internal/app"
	"go.trai.ch/stashsync/internal/build"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/engine/registry"
)

type mockApp struct {
	reg         *registry.Registry
	validateErr error
	validated   []string
	page        *app.Page
	entries     []app.EntryInfo
	failing     map[domain.WriteOperation]error
	executed    []domain.WriteRequest
	startPath   string
	started     bool
	stopped     bool
}

func newMockApp(t *testing.T) *mockApp {
	t.Helper()
	decl, err := declarations.NewLoader().Load()
	require.NoError(t, err)
	reg, err := registry.New(decl)
	require.NoError(t, err)
	return &mockApp{reg: reg, failing: make(map[domain.WriteOperation]error)}
}

func (m *mockApp) Start(_ context.Context, configPath string) error {
	m.started = true
	m.startPath = configPath
	return nil
}

func (m *mockApp) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockApp) Registry() *registry.Registry { return m.reg }

func (m *mockApp) ValidateDeclarations(path string) (*domain.Declarations, error) {
	m.validated = append(m.validated, path)
	return m.reg.Declarations(), m.validateErr
}

func (m *mockApp) LoadPage(_ context.Context, page domain.PageName) (*app.Page, error) {
	if m.page != nil {
		return m.page, nil
	}
	return nil, errors.New("page " + page.String() + " failed")
}

func (m *mockApp) Execute(_ context.Context, req domain.WriteRequest) (any, error) {
	m.executed = append(m.executed, req)
	return nil, m.failing[req.Operation()]
}

func (m *mockApp) Entries() []app.EntryInfo { return m.entries }

type injector struct {
	failed []domain.WriteOperation
	target *mockApp
}

func (i *injector) FailNext(op domain.WriteOperation, err error) {
	i.failed = append(i.failed, op)
	i.target.failing[op] = err
}

func execute(t *testing.T, cli *commands.CLI, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Registry(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		goldenName string
	}{
		{name: "resources", args: []string{"registry", "resources"}, goldenName: "registry_resources"},
		{name: "targets of sync", args: []string{"registry", "targets", "sync"}, goldenName: "targets_sync"},
		{name: "targets of allocateFunds", args: []string{"registry", "targets", "allocateFunds"}, goldenName: "targets_allocate"},
		{name: "targets of toggleItem", args: []string{"registry", "targets", "toggleItem"}, goldenName: "targets_toggle"},
		{name: "stash page", args: []string{"registry", "page", "stash"}, goldenName: "page_stash"},
		{name: "validate", args: []string{"registry", "validate"}, goldenName: "validate_ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, commands.New(newMockApp(t)), tt.args...)
			require.NoError(t, err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, []byte(out))
		})
	}
}

func TestCommands_RegistryErrors(t *testing.T) {
	t.Run("unknown operation", func(t *testing.T) {
		_, err := execute(t, commands.New(newMockApp(t)), "registry", "targets", "launchRocket")
		assert.ErrorContains(t, err, domain.ErrUnknownOperation.Error())
	})

	t.Run("unknown page", func(t *testing.T) {
		_, err := execute(t, commands.New(newMockApp(t)), "registry", "page", "reports")
		assert.ErrorContains(t, err, domain.ErrUnknownPage.Error())
	})

	t.Run("validate passes file and reports violations", func(t *testing.T) {
		mock := newMockApp(t)
		mock.validateErr = domain.ErrDependencyCycle

		_, err := execute(t, commands.New(mock), "registry", "validate", "--file", "custom.yaml")
		require.ErrorIs(t, err, domain.ErrDependencyCycle)
		assert.Equal(t, []string{"custom.yaml"}, mock.validated)
	})
}

func stashPage() *app.Page {
	return &app.Page{
		Name:  domain.PageStash,
		Scope: domain.ScopeStash,
		Primary: map[domain.ResourceName]any{
			domain.ResourceStash: domain.Stash{Items: []domain.StashItem{
				{ID: "trip", Status: domain.StatusOnTrack},
				{ID: "laptop", Status: domain.StatusBehind},
			}},
			domain.ResourceAvailableToStash: domain.AvailableToStash{},
		},
		Supporting: map[domain.ResourceName]any{
			domain.ResourceStashConfig:      domain.StashConfig{},
			domain.ResourcePendingBookmarks: domain.PendingBookmarks{},
			domain.ResourceStashHistory:     domain.StashHistory{},
		},
		Unavailable: []domain.ResourceName{domain.ResourceMonarchGoals},
	}
}

func stashEntries() []app.EntryInfo {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return []app.EntryInfo{
		{Key: domain.ResourceKey(domain.ResourceAvailableToStash), FetchedAt: now, Fresh: true},
		{Key: domain.ResourceKey(domain.ResourceDashboard), FetchedAt: now, Fresh: true, Subscribers: 1},
		{Key: domain.NewCacheKey(domain.ResourceMonthNotes, map[string]string{"month": "2026-01"}), FetchedAt: now, Fresh: true},
		{Key: domain.ResourceKey(domain.ResourceStash), FetchedAt: now, Fresh: true},
		{Key: domain.ResourceKey(domain.ResourceStashHistory), FetchedAt: now, Stale: true},
		{Key: domain.ResourceKey(domain.ResourceSettings), FetchedAt: now.Add(-time.Hour)},
	}
}

func TestCommands_Simulate(t *testing.T) {
	t.Run("runs the scenario", func(t *testing.T) {
		mock := newMockApp(t)
		mock.page = stashPage()
		mock.entries = stashEntries()

		out, err := execute(t, commands.New(mock, commands.WithConfigPath("/srv/stashsync.yaml")), "simulate")
		require.NoError(t, err)

		assert.True(t, mock.started)
		assert.True(t, mock.stopped)
		assert.Equal(t, "/srv/stashsync.yaml", mock.startPath)
		require.Len(t, mock.executed, 3)
		assert.Equal(t, domain.OpAllocateFunds, mock.executed[0].Operation())
		assert.Equal(t, domain.OpToggleItem, mock.executed[1].Operation())
		assert.Equal(t, domain.OpSaveMonthNote, mock.executed[2].Operation())

		g := goldie.New(t)
		g.Assert(t, "simulate_ok", []byte(out))
	})

	t.Run("injects failures", func(t *testing.T) {
		mock := newMockApp(t)
		mock.page = stashPage()
		mock.entries = stashEntries()
		inj := &injector{target: mock}

		out, err := execute(t, commands.New(mock, commands.WithFailureInjector(inj)), "simulate", "--fail", "allocateFunds")
		require.NoError(t, err)
		assert.Equal(t, []domain.WriteOperation{domain.OpAllocateFunds}, inj.failed)

		g := goldie.New(t)
		g.Assert(t, "simulate_fail", []byte(out))
	})

	t.Run("fail without injector", func(t *testing.T) {
		mock := newMockApp(t)
		_, err := execute(t, commands.New(mock), "simulate", "--fail", "toggleItem")
		require.ErrorContains(t, err, "failure injection requires the simulated upstream")
		assert.False(t, mock.started)
	})

	t.Run("unknown fail operation", func(t *testing.T) {
		_, err := execute(t, commands.New(newMockApp(t)), "simulate", "--fail", "launchRocket")
		assert.ErrorContains(t, err, domain.ErrUnknownOperation.Error())
	})

	t.Run("unknown page", func(t *testing.T) {
		_, err := execute(t, commands.New(newMockApp(t)), "simulate", "--page", "reports")
		assert.ErrorContains(t, err, domain.ErrUnknownPage.Error())
	})

	t.Run("page failure still stops", func(t *testing.T) {
		mock := newMockApp(t)
		_, err := execute(t, commands.New(mock), "simulate", "--page", "notes")
		require.ErrorContains(t, err, "page notes failed")
		assert.True(t, mock.stopped)
		assert.Empty(t, mock.executed)
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, commands.New(newMockApp(t)), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stashsync version "+build.Version)
	assert.Contains(t, out, fmt.Sprintf("cache snapshot format: v%d", domain.SnapshotVersion))

	out, err = execute(t, commands.New(newMockApp(t)), "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, build.Version+"\n", out)
}
