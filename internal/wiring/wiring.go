// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stashsync/internal/adapters/config"
	_ "go.trai.ch/stashsync/internal/adapters/declarations"
	_ "go.trai.ch/stashsync/internal/adapters/logger"
	_ "go.trai.ch/stashsync/internal/adapters/persist"
	_ "go.trai.ch/stashsync/internal/adapters/querycache"
	_ "go.trai.ch/stashsync/internal/adapters/telemetry"
	_ "go.trai.ch/stashsync/internal/adapters/upstream"
	_ "go.trai.ch/stashsync/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/stashsync/internal/app"
	_ "go.trai.ch/stashsync/internal/engine/dispatcher"
	_ "go.trai.ch/stashsync/internal/engine/mutation"
	_ "go.trai.ch/stashsync/internal/engine/registry"
)
