package mutation

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/logger"     //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/adapters/querycache" //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/adapters/telemetry"  //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/core/ports"
	"go.trai.ch/stashsync/internal/engine/dispatcher"
)

// NodeID is the unique identifier for the mutation protocol Graft node.
const NodeID graft.ID = "engine.mutation"

func init() {
	graft.Register(graft.Node[*Protocol]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			querycache.NodeID,
			dispatcher.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Protocol, error) {
			cache, err := graft.Dep[*querycache.Controller](ctx)
			if err != nil {
				return nil, err
			}
			disp, err := graft.Dep[*dispatcher.Dispatcher](ctx)
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
			return NewProtocol(cache, disp, tracer, log), nil
		},
	})
}
