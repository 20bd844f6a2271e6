// Package domain contains the core types of the cache-consistency layer.
package domain

import (
	"slices"
	"time"
)

// ResourceName identifies a cacheable unit of upstream data.
type ResourceName string

// Resources known to the dashboard.
const (
	ResourceDashboard        ResourceName = "dashboard"
	ResourceCategoryStore    ResourceName = "categoryStore"
	ResourceCategoryGroups   ResourceName = "categoryGroups"
	ResourceStash            ResourceName = "stash"
	ResourceAvailableToStash ResourceName = "availableToStash"
	ResourceStashConfig      ResourceName = "stashConfig"
	ResourceStashHistory     ResourceName = "stashHistory"
	ResourcePendingBookmarks ResourceName = "pendingBookmarks"
	ResourceMonarchGoals     ResourceName = "monarchGoals"
	ResourceMonthNotes       ResourceName = "monthNotes"
	ResourceAllNotes         ResourceName = "allNotes"
	ResourceNoteHistory      ResourceName = "noteHistory"
	ResourceSettings         ResourceName = "settings"
	ResourceSecurityEvents   ResourceName = "securityEvents"
)

var allResources = []ResourceName{
	ResourceDashboard,
	ResourceCategoryStore,
	ResourceCategoryGroups,
	ResourceStash,
	ResourceAvailableToStash,
	ResourceStashConfig,
	ResourceStashHistory,
	ResourcePendingBookmarks,
	ResourceMonarchGoals,
	ResourceMonthNotes,
	ResourceAllNotes,
	ResourceNoteHistory,
	ResourceSettings,
	ResourceSecurityEvents,
}

// AllResources returns every resource name in declaration order.
func AllResources() []ResourceName {
	return slices.Clone(allResources)
}

// Valid reports whether r belongs to the closed set of resources.
func (r ResourceName) Valid() bool {
	return slices.Contains(allResources, r)
}

func (r ResourceName) String() string {
	return string(r)
}

// ResourceConfig is the freshness policy and static dependency list of a resource.
type ResourceConfig struct {
	// FreshnessWindow is how long fetched data is considered fresh.
	FreshnessWindow time.Duration
	// RetentionWindow is how long unused data is retained. Zero means the cache default.
	RetentionWindow time.Duration
	// Pollable marks the resource as a participant in periodic polling.
	Pollable bool
	// DependsOn lists the resources this one logically depends on.
	DependsOn []ResourceName
}

// Retention returns the effective retention window.
// Resources without an explicit retention keep data for DefaultRetention,
// or for their freshness window when that is longer.
func (c ResourceConfig) Retention() time.Duration {
	if c.RetentionWindow > 0 {
		return c.RetentionWindow
	}
	return max(DefaultRetention, c.FreshnessWindow)
}

// DefaultRetention is used for resources that do not declare a retention window.
const DefaultRetention = 5 * time.Minute

// WriteOperation identifies a mutation of upstream state.
type WriteOperation string

// Write operations issued by the dashboard.
const (
	OpSync               WriteOperation = "sync"
	OpToggleItem         WriteOperation = "toggleItem"
	OpAllocateFunds      WriteOperation = "allocateFunds"
	OpAllocateFundsBatch WriteOperation = "allocateFundsBatch"
	OpSetRecurringBudget WriteOperation = "setRecurringBudget"
	OpCreateStash        WriteOperation = "createStash"
	OpUpdateStash        WriteOperation = "updateStash"
	OpDeleteStash        WriteOperation = "deleteStash"
	OpArchiveStash       WriteOperation = "archiveStash"
	OpUnarchiveStash     WriteOperation = "unarchiveStash"
	OpReorderStash       WriteOperation = "reorderStash"
	OpCompleteStash      WriteOperation = "completeStash"
	OpSkipPending        WriteOperation = "skipPending"
	OpConvertPending     WriteOperation = "convertPending"
	OpLinkGoal           WriteOperation = "linkGoal"
	OpSaveMonthNote      WriteOperation = "saveMonthNote"
	OpDeleteMonthNote    WriteOperation = "deleteMonthNote"
	OpUpdateSettings     WriteOperation = "updateSettings"
	OpUpdateStashConfig  WriteOperation = "updateStashConfig"
	OpAddToRollup        WriteOperation = "addToRollup"
	OpRemoveFromRollup   WriteOperation = "removeFromRollup"
	OpLinkCategory       WriteOperation = "linkCategory"
)

var allOperations = []WriteOperation{
	OpSync,
	OpToggleItem,
	OpAllocateFunds,
	OpAllocateFundsBatch,
	OpSetRecurringBudget,
	OpCreateStash,
	OpUpdateStash,
	OpDeleteStash,
	OpArchiveStash,
	OpUnarchiveStash,
	OpReorderStash,
	OpCompleteStash,
	OpSkipPending,
	OpConvertPending,
	OpLinkGoal,
	OpSaveMonthNote,
	OpDeleteMonthNote,
	OpUpdateSettings,
	OpUpdateStashConfig,
	OpAddToRollup,
	OpRemoveFromRollup,
	OpLinkCategory,
}

// AllOperations returns every write operation in declaration order.
func AllOperations() []WriteOperation {
	return slices.Clone(allOperations)
}

// Valid reports whether op belongs to the closed set of write operations.
func (op WriteOperation) Valid() bool {
	return slices.Contains(allOperations, op)
}

func (op WriteOperation) String() string {
	return string(op)
}

// EffectEntry lists the resources a write operation invalidates immediately
// and the ones it only marks stale.
type EffectEntry struct {
	Invalidate []ResourceName
	MarkStale  []ResourceName
}

// PageName identifies a top-level page of the dashboard.
type PageName string

// Pages of the dashboard.
const (
	PageRecurring PageName = "recurring"
	PageStash     PageName = "stash"
	PageNotes     PageName = "notes"
	PageSettings  PageName = "settings"
	PageDashboard PageName = "dashboard"
)

var allPages = []PageName{PageRecurring, PageStash, PageNotes, PageSettings, PageDashboard}

// AllPages returns every page in declaration order.
func AllPages() []PageName {
	return slices.Clone(allPages)
}

// Valid reports whether p belongs to the closed set of pages.
func (p PageName) Valid() bool {
	return slices.Contains(allPages, p)
}

func (p PageName) String() string {
	return string(p)
}

// SyncScope is the breadth of a manual refresh triggered from a page.
type SyncScope string

// Sync scopes.
const (
	ScopeRecurring SyncScope = "recurring"
	ScopeStash     SyncScope = "stash"
	ScopeNotes     SyncScope = "notes"
	ScopeFull      SyncScope = "full"
)

// Valid reports whether s is a known sync scope.
func (s SyncScope) Valid() bool {
	switch s {
	case ScopeRecurring, ScopeStash, ScopeNotes, ScopeFull:
		return true
	default:
		return false
	}
}

// PageConfig splits the resources of a page into the ones that block rendering
// and the ones that render progressively.
type PageConfig struct {
	Primary    []ResourceName
	Supporting []ResourceName
	SyncScope  SyncScope
}

// MaxPollInterval is the upper bound for the polling interval.
const MaxPollInterval = 10 * time.Minute

// PollConfig configures periodic polling.
type PollConfig struct {
	Interval          time.Duration
	PollableResources []ResourceName
}

// Declarations is the complete, static registry declaration.
type Declarations struct {
	Resources  map[ResourceName]ResourceConfig
	Operations map[WriteOperation]EffectEntry
	Pages      map[PageName]PageConfig
	Polling    PollConfig
}
