package world

import (
	"time"
)

// Hooks registered on the script registry and called by the world.

type OpenStateListener interface {
	OnOpenStateChange(open bool)
}

type MotdListener interface {
	OnMotdChange(lines []string)
}

type ShutdownListener interface {
	OnShutdownInitiate(code ExitCode, mask ShutdownMask)
	OnShutdownCancel()
}

// TickListener runs on the simulation goroutine after the map updates.
type TickListener interface {
	OnWorldUpdate(diff time.Duration)
}
