package app

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/stashsync/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/stashsync/internal/adapters/persist"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stashsync/internal/adapters/querycache" //nolint:depguard // Wired in app layer
	"go.trai.ch/stashsync/internal/adapters/upstream"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stashsync/internal/adapters/watcher"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/stashsync/internal/engine/dispatcher"
	"go.trai.ch/stashsync/internal/engine/mutation"
	"go.trai.ch/stashsync/internal/engine/registry"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles what the commands need.
type Components struct {
	App       *App
	Logger    ports.Logger
	Config    *domain.Config
	Registry  *registry.Registry
	Simulator *upstream.Simulator
	Store     ports.SnapshotStore
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			registry.NodeID,
			querycache.NodeID,
			dispatcher.NodeID,
			mutation.NodeID,
			upstream.NodeID,
			persist.NodeID,
			config.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.ConfigNodeID,
			registry.NodeID,
			upstream.SimulatorNodeID,
			persist.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	reg, err := graft.Dep[*registry.Registry](ctx)
	if err != nil {
		return nil, err
	}
	cache, err := graft.Dep[*querycache.Controller](ctx)
	if err != nil {
		return nil, err
	}
	disp, err := graft.Dep[*dispatcher.Dispatcher](ctx)
	if err != nil {
		return nil, err
	}
	protocol, err := graft.Dep[*mutation.Protocol](ctx)
	if err != nil {
		return nil, err
	}
	up, err := graft.Dep[ports.Upstream](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.SnapshotStore](ctx)
	if err != nil {
		return nil, err
	}
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[*watcher.ConfigWatcher](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(reg, cache, disp, protocol, up, store, log).WithConfigWatcher(loader, w), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}
	reg, err := graft.Dep[*registry.Registry](ctx)
	if err != nil {
		return nil, err
	}
	sim, err := graft.Dep[*upstream.Simulator](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.SnapshotStore](ctx)
	if err != nil {
		return nil, err
	}

	if l, ok := log.(*logger.Logger); ok {
		l.SetJSON(cfg.LogJSON)
		l.SetLevel(cfg.LogLevel)
		l.ApplyEnv(os.LookupEnv)
	}

	return &Components{
		App:       a,
		Logger:    log,
		Config:    cfg,
		Registry:  reg,
		Simulator: sim,
		Store:     store,
	}, nil
}
