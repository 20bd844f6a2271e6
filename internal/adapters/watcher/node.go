package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/adapters/logger"
	"go.trai.ch/stashsync/internal/core/ports"
)

// NodeID is the unique identifier for the config watcher Graft node.
const NodeID graft.ID = "adapter.watcher"

func init() {
	graft.Register(graft.Node[*ConfigWatcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*ConfigWatcher, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewConfigWatcher(log, DefaultDebounceWindow)
		},
	})
}
