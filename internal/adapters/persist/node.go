package persist

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/config"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/stashsync/internal/core/ports"
)

// NodeID is the unique identifier for the snapshot store Graft node.
const NodeID graft.ID = "adapter.persist"

func init() {
	graft.Register(graft.Node[ports.SnapshotStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID},
		Run: func(ctx context.Context) (ports.SnapshotStore, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return Open(cfg.Persistence)
		},
	})
}
