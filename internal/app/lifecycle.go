package app

import (
	"context"
	"errors"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Start restores the persisted cache, starts polling and retention sweeps
// and, when a watcher is set and configPath is not empty, follows edits of
// the config file.
func (a *App) Start(ctx context.Context, configPath string) error {
	if a.cancel != nil {
		return zerr.New("app already started")
	}

	snap, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Warn("ignoring unreadable cache snapshot", "error", err.Error())
	}
	restored, err := a.cache.Hydrate(snap)
	if err != nil {
		a.logger.Warn("ignoring incompatible cache snapshot", "error", err.Error())
	}
	if restored > 0 {
		a.logger.Info("restored cache", "entries", restored)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.done = make(chan struct{})
	a.cache.Start(runCtx)

	if a.watcher == nil || configPath == "" {
		close(a.done)
		return nil
	}
	if err := a.watcher.Start(runCtx, configPath); err != nil {
		close(a.done)
		a.logger.Warn("config file will not be reloaded", "path", configPath, "error", err.Error())
		return nil
	}
	go func() {
		defer close(a.done)
		a.followConfig()
	}()
	return nil
}

// Stop stops background work and persists the cache.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel == nil {
		return nil
	}
	a.cancel()
	a.cancel = nil

	var errs error
	if a.watcher != nil {
		errs = errors.Join(errs, a.watcher.Stop())
	}
	<-a.done
	a.cache.Stop()

	snap, err := a.cache.Dehydrate()
	if err != nil {
		return errors.Join(errs, err)
	}
	if err := a.store.Save(ctx, snap); err != nil {
		errs = errors.Join(errs, err)
	} else {
		a.logger.Debug("persisted cache", "entries", len(snap.Entries))
	}
	return errs
}

// followConfig applies the poll interval of each reloaded config file.
func (a *App) followConfig() {
	for path := range a.watcher.Changes() {
		cfg, err := a.loader.Load(filepath.Dir(path))
		if err != nil {
			a.logger.Warn("ignoring invalid config change", "path", path, "error", err.Error())
			continue
		}

		interval := cfg.PollInterval
		if interval == 0 {
			interval = a.registry.PollConfig().Interval
		}
		if interval == a.cache.PollInterval() {
			continue
		}
		if err := a.cache.SetPollInterval(interval); err != nil {
			a.logger.Warn("ignoring poll interval", "error", err.Error())
			continue
		}
		a.logger.Info("poll interval changed", "interval", interval.String())
	}
}
