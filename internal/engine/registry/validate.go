package registry

import (
	"errors"
	"slices"
	"strings"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
)

// Validate runs every closed-world check against decl and reports all violations at once.
func Validate(decl *domain.Declarations) error {
	if decl == nil {
		return zerr.Wrap(domain.ErrMissingResourceConfig, "registry declaration is empty")
	}

	var errs []error
	errs = append(errs, validateResources(decl)...)
	errs = append(errs, validateOperations(decl)...)
	errs = append(errs, validatePages(decl)...)
	errs = append(errs, validatePolling(decl)...)
	if err := validateAcyclic(decl.Resources); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func violation(sentinel error, kv ...string) error {
	err := sentinel
	for i := 0; i+1 < len(kv); i += 2 {
		err = zerr.With(err, kv[i], kv[i+1])
	}
	return err
}

func validateResources(decl *domain.Declarations) []error {
	var errs []error
	for _, name := range domain.AllResources() {
		if _, ok := decl.Resources[name]; !ok {
			errs = append(errs, violation(domain.ErrMissingResourceConfig, "resource", name.String()))
		}
	}

	for _, name := range sortedKeys(decl.Resources) {
		cfg := decl.Resources[name]
		if !name.Valid() {
			errs = append(errs, violation(domain.ErrUnknownResource, "resource", name.String()))
			continue
		}
		if cfg.FreshnessWindow <= 0 {
			errs = append(errs, violation(domain.ErrInvalidFreshness,
				"resource", name.String(), "freshness", cfg.FreshnessWindow.String()))
		}
		if cfg.RetentionWindow != 0 && cfg.RetentionWindow < cfg.FreshnessWindow {
			errs = append(errs, violation(domain.ErrRetentionBelowFreshness,
				"resource", name.String(), "retention", cfg.RetentionWindow.String()))
		}
		for _, dep := range cfg.DependsOn {
			if !known(decl.Resources, dep) {
				errs = append(errs, violation(domain.ErrUnknownResource,
					"resource", dep.String(), "referenced_by", name.String()))
			}
		}
	}
	return errs
}

func validateOperations(decl *domain.Declarations) []error {
	var errs []error
	for _, op := range domain.AllOperations() {
		if _, ok := decl.Operations[op]; !ok {
			errs = append(errs, violation(domain.ErrMissingEffectEntry, "operation", op.String()))
		}
	}

	for _, op := range sortedKeys(decl.Operations) {
		entry := decl.Operations[op]
		if !op.Valid() {
			errs = append(errs, violation(domain.ErrUnknownOperation, "operation", op.String()))
			continue
		}
		if len(entry.Invalidate) == 0 && len(entry.MarkStale) == 0 {
			errs = append(errs, violation(domain.ErrEmptyEffect, "operation", op.String()))
		}
		for _, name := range slices.Concat(entry.Invalidate, entry.MarkStale) {
			if !known(decl.Resources, name) {
				errs = append(errs, violation(domain.ErrUnknownResource,
					"resource", name.String(), "referenced_by", op.String()))
			}
		}
		for _, name := range entry.Invalidate {
			if slices.Contains(entry.MarkStale, name) {
				errs = append(errs, violation(domain.ErrEffectsOverlap,
					"operation", op.String(), "resource", name.String()))
			}
		}
	}
	return errs
}

func validatePages(decl *domain.Declarations) []error {
	var errs []error
	for _, page := range domain.AllPages() {
		if _, ok := decl.Pages[page]; !ok {
			errs = append(errs, violation(domain.ErrMissingPageConfig, "page", page.String()))
		}
	}

	for _, page := range sortedKeys(decl.Pages) {
		cfg := decl.Pages[page]
		if !page.Valid() {
			errs = append(errs, violation(domain.ErrUnknownPage, "page", page.String()))
			continue
		}
		if !cfg.SyncScope.Valid() {
			errs = append(errs, violation(domain.ErrInvalidSyncScope,
				"page", page.String(), "scope", string(cfg.SyncScope)))
		}
		for _, name := range slices.Concat(cfg.Primary, cfg.Supporting) {
			if !known(decl.Resources, name) {
				errs = append(errs, violation(domain.ErrUnknownResource,
					"resource", name.String(), "referenced_by", page.String()))
			}
		}
		for _, name := range cfg.Primary {
			if slices.Contains(cfg.Supporting, name) {
				errs = append(errs, violation(domain.ErrPageResourcesOverlap,
					"page", page.String(), "resource", name.String()))
			}
		}
	}
	return errs
}

func validatePolling(decl *domain.Declarations) []error {
	var errs []error
	interval := decl.Polling.Interval
	if interval <= 0 || interval > domain.MaxPollInterval {
		errs = append(errs, violation(domain.ErrInvalidPollInterval, "interval", interval.String()))
	}

	for _, name := range decl.Polling.PollableResources {
		if !known(decl.Resources, name) {
			errs = append(errs, violation(domain.ErrUnknownResource,
				"resource", name.String(), "referenced_by", "polling"))
			continue
		}
		if !decl.Resources[name].Pollable {
			errs = append(errs, violation(domain.ErrPollableMismatch,
				"resource", name.String(), "reason", "listed but not flagged pollable"))
		}
	}
	for _, name := range sortedKeys(decl.Resources) {
		if decl.Resources[name].Pollable && !slices.Contains(decl.Polling.PollableResources, name) {
			errs = append(errs, violation(domain.ErrPollableMismatch,
				"resource", name.String(), "reason", "flagged pollable but not listed"))
		}
	}
	return errs
}

// validateAcyclic checks dependsOn for cycles with a depth-first walk.
func validateAcyclic(resources map[domain.ResourceName]domain.ResourceConfig) error {
	visited := make(map[domain.ResourceName]int) // 0: unvisited, 1: visiting, 2: visited
	var path []domain.ResourceName

	var visit func(u domain.ResourceName) error
	visit = func(u domain.ResourceName) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range resources[u].DependsOn {
			if _, ok := resources[dep]; !ok {
				continue
			}
			if visited[dep] == 1 {
				return cycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range sortedKeys(resources) {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func cycleError(path []domain.ResourceName, dep domain.ResourceName) error {
	start := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return violation(domain.ErrDependencyCycle, "cycle", strings.Join(parts, " -> "))
}

func known(resources map[domain.ResourceName]domain.ResourceConfig, name domain.ResourceName) bool {
	if !name.Valid() {
		return false
	}
	_, ok := resources[name]
	return ok
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
