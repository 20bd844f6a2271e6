package logger

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/stashsync/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node. The logger it
// provides honors EnvLevel and EnvJSON before any config file is read.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			l := New()
			if lg, ok := l.(*Logger); ok {
				lg.ApplyEnv(os.LookupEnv)
			}
			return l, nil
		},
	})
}
