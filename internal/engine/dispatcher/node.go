package dispatcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/logger"     //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/adapters/querycache" //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/adapters/telemetry"  //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/stashsync/internal/engine/registry"
)

// NodeID is the unique identifier for the dispatcher Graft node.
const NodeID graft.ID = "engine.dispatcher"

func init() {
	graft.Register(graft.Node[*Dispatcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			registry.NodeID,
			querycache.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Dispatcher, error) {
			reg, err := graft.Dep[*registry.Registry](ctx)
			if err != nil {
				return nil, err
			}
			cache, err := graft.Dep[*querycache.Controller](ctx)
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
			return New(reg, cache, tracer, log), nil
		},
	})
}
