package app

import (
	"context"
	"slices"
	"sync"

	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Page is the data a page renders.
type Page struct {
	Name       domain.PageName
	Scope      domain.SyncScope
	Primary    map[domain.ResourceName]any
	Supporting map[domain.ResourceName]any
	// Unavailable lists supporting resources that failed to load.
	Unavailable []domain.ResourceName
}

// LoadPage loads every resource of page. Each resource is fetched after the
// resources it depends on, independent resources concurrently. A primary
// resource that fails to load fails the page; supporting resources that fail
// are reported in Unavailable.
func (a *App) LoadPage(ctx context.Context, page domain.PageName) (*Page, error) {
	primary, _, err := a.ensureOrdered(ctx, a.registry.PrimaryResources(page), true)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load page"), "page", page.String())
	}

	supporting, failed, err := a.ensureOrdered(ctx, a.registry.SupportingResources(page), false)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load page"), "page", page.String())
	}

	out := &Page{
		Name:       page,
		Scope:      a.registry.SyncScope(page),
		Primary:    make(map[domain.ResourceName]any),
		Supporting: make(map[domain.ResourceName]any),
	}
	for _, r := range a.registry.PrimaryResources(page) {
		out.Primary[r] = primary[r]
	}
	for _, r := range a.registry.SupportingResources(page) {
		if v, ok := supporting[r]; ok {
			out.Supporting[r] = v
		} else if slices.Contains(failed, r) {
			out.Unavailable = append(out.Unavailable, r)
		}
	}
	return out, nil
}

// Watch subscribes fn to every resource of page, so that invalidations
// refetch them at once. It returns the function that ends the subscription.
func (a *App) Watch(page domain.PageName, fn func(r domain.ResourceName, value any)) func() {
	var stops []func()
	for _, r := range a.registry.AllResources(page) {
		stops = append(stops, a.cache.Subscribe(a.keyFor(r), func(v any) { fn(r, v) }))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// ensureOrdered ensures roots and their dependencies. With stopOnError the
// first failure cancels the remaining fetches and is returned; otherwise
// failed resources, and those depending on them, are returned in failed.
func (a *App) ensureOrdered(
	ctx context.Context,
	roots []domain.ResourceName,
	stopOnError bool,
) (values map[domain.ResourceName]any, failed []domain.ResourceName, err error) {
	order := a.fetchOrder(roots)
	done := make(map[domain.ResourceName]chan struct{}, len(order))
	for _, r := range order {
		done[r] = make(chan struct{})
	}

	var mu sync.Mutex
	values = make(map[domain.ResourceName]any, len(order))
	fail := func(r domain.ResourceName, cause error) error {
		mu.Lock()
		failed = append(failed, r)
		mu.Unlock()
		if stopOnError {
			return zerr.With(cause, "resource", r.String())
		}
		a.logger.Warn("resource unavailable", "resource", r.String(), "error", cause.Error())
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range order {
		g.Go(func() error {
			defer close(done[r])

			for _, dep := range a.registry.Dependencies(r) {
				select {
				case <-done[dep]:
				case <-gctx.Done():
					return gctx.Err()
				}
				mu.Lock()
				depFailed := slices.Contains(failed, dep)
				mu.Unlock()
				if depFailed {
					return fail(r, zerr.With(zerr.New("dependency failed"), "dependency", dep.String()))
				}
			}

			v, err := a.cache.Ensure(gctx, a.keyFor(r))
			if err != nil {
				return fail(r, err)
			}
			mu.Lock()
			values[r] = v
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return values, failed, err
}

// fetchOrder lists roots and their dependencies, dependencies first, once each.
func (a *App) fetchOrder(roots []domain.ResourceName) []domain.ResourceName {
	var order []domain.ResourceName
	for _, root := range roots {
		for _, r := range append(a.registry.Dependencies(root), root) {
			if !slices.Contains(order, r) {
				order = append(order, r)
			}
		}
	}
	return order
}
