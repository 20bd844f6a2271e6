package declarations

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/core/ports"
)

// NodeID is the unique identifier for the declaration loader Graft node.
const NodeID graft.ID = "adapter.declarations"

func init() {
	graft.Register(graft.Node[ports.DeclarationLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DeclarationLoader, error) {
			return NewLoader(), nil
		},
	})
}
