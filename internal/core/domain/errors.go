package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownResource is returned when a declaration references a resource outside the catalog.
	ErrUnknownResource = zerr.New("unknown resource")

	// ErrUnknownOperation is returned when a declaration names a write operation outside the closed set.
	ErrUnknownOperation = zerr.New("unknown write operation")

	// ErrUnknownPage is returned when a declaration names a page outside the closed set.
	ErrUnknownPage = zerr.New("unknown page")

	// ErrMissingResourceConfig is returned when a resource of the closed set has no config.
	ErrMissingResourceConfig = zerr.New("resource has no config")

	// ErrMissingEffectEntry is returned when a write operation has no effect entry.
	ErrMissingEffectEntry = zerr.New("write operation has no effect entry")

	// ErrMissingPageConfig is returned when a page has no config.
	ErrMissingPageConfig = zerr.New("page has no config")

	// ErrInvalidFreshness is returned when a freshness window is not positive.
	ErrInvalidFreshness = zerr.New("freshness window must be positive")

	// ErrRetentionBelowFreshness is returned when retained data would expire before it stops being fresh.
	ErrRetentionBelowFreshness = zerr.New("retention window is shorter than freshness window")

	// ErrEffectsOverlap is returned when a resource is both invalidated and marked stale by one operation.
	ErrEffectsOverlap = zerr.New("resource is both invalidated and marked stale")

	// ErrEmptyEffect is returned when a write operation affects no resource.
	ErrEmptyEffect = zerr.New("write operation affects no resource")

	// ErrPageResourcesOverlap is returned when a resource is both primary and supporting on a page.
	ErrPageResourcesOverlap = zerr.New("resource is both primary and supporting")

	// ErrInvalidSyncScope is returned when a page declares an unknown sync scope.
	ErrInvalidSyncScope = zerr.New("invalid sync scope, expected 'recurring', 'stash', 'notes' or 'full'")

	// ErrInvalidPollInterval is returned when the poll interval is outside (0, 10m].
	ErrInvalidPollInterval = zerr.New("poll interval must be greater than 0 and at most 600000ms")

	// ErrPollableMismatch is returned when the polling list and the resource flags disagree.
	ErrPollableMismatch = zerr.New("pollable resources disagree with resource configs")

	// ErrDependencyCycle is returned when resource dependencies form a cycle.
	ErrDependencyCycle = zerr.New("dependency cycle detected")

	// ErrDeclarationReadFailed is returned when the registry declaration cannot be read.
	ErrDeclarationReadFailed = zerr.New("failed to read registry declaration")

	// ErrDeclarationParseFailed is returned when the registry declaration cannot be parsed.
	ErrDeclarationParseFailed = zerr.New("failed to parse registry declaration")

	// ErrDeclarationSchemaFailed is returned when the registry declaration does not match its schema.
	ErrDeclarationSchemaFailed = zerr.New("registry declaration does not match schema")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = zerr.New("invalid config value")

	// ErrInvalidDate is returned when a date cannot be parsed.
	ErrInvalidDate = zerr.New("invalid date, expected YYYY-MM-DD")

	// ErrNoFetcher is returned when a resource has no registered fetcher.
	ErrNoFetcher = zerr.New("no fetcher registered for resource")

	// ErrFetchFailed is returned when fetching a resource from upstream fails.
	ErrFetchFailed = zerr.New("failed to fetch resource")

	// ErrFetchCancelled is returned to readers whose fetch was cancelled by a mutation.
	ErrFetchCancelled = zerr.New("fetch cancelled")

	// ErrRemoteWriteFailed is returned when an upstream write fails and the cache was rolled back.
	ErrRemoteWriteFailed = zerr.New("remote write failed")

	// ErrWriteCommitted marks a write error that happened after the upstream committed the write.
	// The protocol treats such errors as success.
	ErrWriteCommitted = zerr.New("write already committed upstream")

	// ErrItemNotFound is returned when a write targets an item that does not exist.
	ErrItemNotFound = zerr.New("item not found")

	// ErrInvalidAmount is returned when a write carries a malformed amount.
	ErrInvalidAmount = zerr.New("invalid amount")

	// ErrUpstreamUnavailable is returned by the simulated upstream when a failure is injected.
	ErrUpstreamUnavailable = zerr.New("upstream unavailable")

	// ErrUnsupportedBackend is returned when a persistence DSN names an unknown scheme.
	ErrUnsupportedBackend = zerr.New("unsupported persistence backend")

	// ErrSnapshotReadFailed is returned when a persisted cache snapshot cannot be read.
	ErrSnapshotReadFailed = zerr.New("failed to read cache snapshot")

	// ErrSnapshotWriteFailed is returned when a cache snapshot cannot be written.
	ErrSnapshotWriteFailed = zerr.New("failed to write cache snapshot")
)
