package querycache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/config"
	"go.trai.ch/stashsync/internal/adapters/logger"
	"go.trai.ch/stashsync/internal/adapters/telemetry"
	"go.trai.ch/stashsync/internal/adapters/upstream"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/stashsync/internal/engine/derive"   //nolint:depguard // Stored values are recomputed on write
	"go.trai.ch/stashsync/internal/engine/registry" //nolint:depguard // Freshness policy comes from the registry
)

// NodeID is the unique identifier for the query cache Graft node.
const NodeID graft.ID = "adapter.querycache"

func init() {
	graft.Register(graft.Node[*Controller]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			registry.NodeID,
			upstream.NodeID,
			config.ConfigNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Controller, error) {
			reg, err := graft.Dep[*registry.Registry](ctx)
			if err != nil {
				return nil, err
			}
			up, err := graft.Dep[ports.Upstream](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(reg, up, tracer, log,
				WithTransform(derive.Recompute),
				WithPollInterval(cfg.PollInterval),
				WithGCInterval(cfg.GCInterval),
			), nil
		},
	})
}
