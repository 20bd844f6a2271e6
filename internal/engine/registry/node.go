package registry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/declarations" //nolint:depguard // Wired in engine layer
	"go.trai.ch/stashsync/internal/core/ports"
)

// NodeID is the unique identifier for the registry Graft node.
const NodeID graft.ID = "engine.registry"

func init() {
	graft.Register(graft.Node[*Registry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{declarations.NodeID},
		Run: func(ctx context.Context) (*Registry, error) {
			loader, err := graft.Dep[ports.DeclarationLoader](ctx)
			if err != nil {
				return nil, err
			}
			decl, err := loader.Load()
			if err != nil {
				return nil, err
			}
			return New(decl)
		},
	})
}
