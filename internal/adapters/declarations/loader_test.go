package declarations_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stashsync/internal/adapters/declarations"
	"go.trai.ch/stashsync/internal/core/domain"
)

const minimalDeclaration = `
resources:
  dashboard:
    freshnessWindowMs: 1000
    retentionWindowMs: 5000
    pollable: true
    dependsOn: [stash]
  stash:
    freshnessWindowMs: 2000
operations:
  toggleItem:
    invalidate: [dashboard]
    markStale: [stash]
pages:
  recurring:
    primary: [dashboard]
    supporting: [stash]
    syncScope: recurring
polling:
  pollIntervalMs: 60000
  pollableResources: [dashboard]
`

func TestLoader_LoadEmbedded(t *testing.T) {
	decl, err := declarations.NewLoader().Load()
	require.NoError(t, err)

	assert.Len(t, decl.Resources, len(domain.AllResources()))
	assert.Len(t, decl.Operations, len(domain.AllOperations()))
	assert.Len(t, decl.Pages, len(domain.AllPages()))
	assert.Equal(t, 5*time.Minute, decl.Polling.Interval)

	toggle := decl.Operations[domain.OpToggleItem]
	assert.Equal(t, []domain.ResourceName{domain.ResourceDashboard}, toggle.Invalidate)
	assert.Empty(t, toggle.MarkStale)
}

func TestParse_ConvertsUnits(t *testing.T) {
	decl, err := declarations.Parse([]byte(minimalDeclaration))
	require.NoError(t, err)

	dash := decl.Resources[domain.ResourceDashboard]
	assert.Equal(t, time.Second, dash.FreshnessWindow)
	assert.Equal(t, 5*time.Second, dash.RetentionWindow)
	assert.True(t, dash.Pollable)
	assert.Equal(t, []domain.ResourceName{domain.ResourceStash}, dash.DependsOn)

	stash := decl.Resources[domain.ResourceStash]
	assert.Zero(t, stash.RetentionWindow)
	assert.False(t, stash.Pollable)
	assert.Empty(t, stash.DependsOn)

	page := decl.Pages[domain.PageRecurring]
	assert.Equal(t, domain.ScopeRecurring, page.SyncScope)
	assert.Equal(t, []domain.ResourceName{domain.ResourceStash}, page.Supporting)

	assert.Equal(t, time.Minute, decl.Polling.Interval)
	assert.Equal(t, []domain.ResourceName{domain.ResourceDashboard}, decl.Polling.PollableResources)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing polling",
			doc: `
resources: {dashboard: {freshnessWindowMs: 1000}}
operations: {toggleItem: {invalidate: [dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: recurring}}
`,
		},
		{
			name: "zero poll interval",
			doc: `
resources: {dashboard: {freshnessWindowMs: 1000}}
operations: {toggleItem: {invalidate: [dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: recurring}}
polling: {pollIntervalMs: 0, pollableResources: []}
`,
		},
		{
			name: "poll interval above ten minutes",
			doc: `
resources: {dashboard: {freshnessWindowMs: 1000}}
operations: {toggleItem: {invalidate: [dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: recurring}}
polling: {pollIntervalMs: 600001, pollableResources: []}
`,
		},
		{
			name: "negative freshness",
			doc: `
resources: {dashboard: {freshnessWindowMs: -5}}
operations: {toggleItem: {invalidate: [dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: recurring}}
polling: {pollIntervalMs: 1000, pollableResources: []}
`,
		},
		{
			name: "unknown sync scope",
			doc: `
resources: {dashboard: {freshnessWindowMs: 1000}}
operations: {toggleItem: {invalidate: [dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: everything}}
polling: {pollIntervalMs: 1000, pollableResources: []}
`,
		},
		{
			name: "unknown field",
			doc: `
resources: {dashboard: {freshnessWindowMs: 1000, ttl: 5}}
operations: {toggleItem: {invalidate: [dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: recurring}}
polling: {pollIntervalMs: 1000, pollableResources: []}
`,
		},
		{
			name: "duplicate names in list",
			doc: `
resources: {dashboard: {freshnessWindowMs: 1000}}
operations: {toggleItem: {invalidate: [dashboard, dashboard]}}
pages: {recurring: {primary: [dashboard], syncScope: recurring}}
polling: {pollIntervalMs: 1000, pollableResources: []}
`,
		},
		{
			name: "empty document",
			doc:  ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := declarations.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrDeclarationSchemaFailed.Error())
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := declarations.Parse([]byte("resources: [unterminated"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDeclarationParseFailed.Error())
}

func TestFileLoader(t *testing.T) {
	t.Run("reads declaration from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.yaml")
		require.NoError(t, os.WriteFile(path, []byte(minimalDeclaration), 0o600))

		decl, err := declarations.NewFileLoader(path).Load()
		require.NoError(t, err)
		assert.Len(t, decl.Resources, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.yaml")

		_, err := declarations.NewFileLoader(path).Load()
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrDeclarationReadFailed.Error())
	})
}

func TestDefault_MatchesEmbedded(t *testing.T) {
	fromDefault, err := declarations.Parse(declarations.Default())
	require.NoError(t, err)

	embedded, err := declarations.NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, embedded, fromDefault)
}
