package upstream

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/config"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
)

const (
	// SimulatorNodeID is the unique identifier for the simulator Graft node.
	SimulatorNodeID graft.ID = "adapter.upstream.simulator"
	// NodeID is the unique identifier for the upstream Graft node.
	NodeID graft.ID = "adapter.upstream"
)

func init() {
	graft.Register(graft.Node[*Simulator]{
		ID:        SimulatorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID},
		Run: func(ctx context.Context) (*Simulator, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return New(
				WithLatency(cfg.Upstream.Latency),
				WithStaleReadWindow(cfg.Upstream.StaleReadWindow),
			)
		},
	})

	graft.Register(graft.Node[ports.Upstream]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{SimulatorNodeID},
		Run: func(ctx context.Context) (ports.Upstream, error) {
			sim, err := graft.Dep[*Simulator](ctx)
			if err != nil {
				return nil, err
			}
			return sim, nil
		},
	})
}
