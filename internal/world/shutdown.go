package world

import (
	"log/slog"
	"time"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/script"
)

// ShutdownMask selects how a pending shutdown behaves.
type ShutdownMask uint8

const (
	// ShutdownRestart reports a restart to clients and exits with ExitRestart.
	ShutdownRestart ShutdownMask = 1 << iota
	// ShutdownIdle waits for every session to leave before stopping.
	ShutdownIdle
)

// ExitCode is the process status the driver exits with.
type ExitCode int

const (
	ExitShutdown ExitCode = 0
	ExitError    ExitCode = 1
	ExitRestart  ExitCode = 2
)

const (
	minute = 60
	hour   = 60 * minute
)

// ShutdownServ arms the shutdown countdown. A zero delay stops on the next
// tick without telling clients. It is ignored once the world has stopped.
func (w *WorldManager) ShutdownServ(delay time.Duration, mask ShutdownMask, code ExitCode, reason string) {
	if w.IsStopped() {
		return
	}

	w.shutdownMu.Lock()
	w.shutdownMask = mask
	w.exitCode = code
	if delay <= 0 {
		w.shutdownTimer = 1
	} else {
		w.shutdownTimer = uint32(delay / time.Second)
		if w.shutdownTimer == 0 {
			w.shutdownTimer = 1
		}
		w.shutdownMsg(true, reason)
	}
	w.shutdownMu.Unlock()

	slog.Info("shutdown initiated", "delay", delay, "mask", mask, "exit_code", int(code), "reason", reason)
	script.ForEach(w.scripts, func(l ShutdownListener) {
		l.OnShutdownInitiate(code, mask)
	})
}

// ShutdownCancel disarms a pending shutdown and returns the time that was
// left. It returns zero when nothing was pending or the world already stopped.
func (w *WorldManager) ShutdownCancel() time.Duration {
	w.shutdownMu.Lock()
	if w.shutdownTimer == 0 || w.IsStopped() {
		w.shutdownMu.Unlock()
		return 0
	}

	msg := packet.ServerMsgShutdownCancelled
	if w.shutdownMask&ShutdownRestart != 0 {
		msg = packet.ServerMsgRestartCancelled
	}
	left := time.Duration(w.shutdownTimer) * time.Second
	w.shutdownTimer = 0
	w.shutdownMask = 0
	w.exitCode = ExitShutdown
	w.shutdownMu.Unlock()

	w.SendServerMessage(msg, "", nil)
	slog.Info("shutdown cancelled", "remaining", left)
	script.ForEach(w.scripts, func(l ShutdownListener) {
		l.OnShutdownCancel()
	})
	return left
}

// IsShuttingDown reports whether a countdown is armed.
func (w *WorldManager) IsShuttingDown() bool {
	w.shutdownMu.Lock()
	defer w.shutdownMu.Unlock()
	return w.shutdownTimer > 0
}

// ShutdownRemaining returns the countdown left, or zero.
func (w *WorldManager) ShutdownRemaining() time.Duration {
	w.shutdownMu.Lock()
	defer w.shutdownMu.Unlock()
	return time.Duration(w.shutdownTimer) * time.Second
}

// IsStopped reports whether the tick loop should exit.
func (w *WorldManager) IsStopped() bool {
	return w.stopped.Load()
}

// StopNow stops the world on the next driver check without a countdown.
func (w *WorldManager) StopNow(code ExitCode) {
	w.shutdownMu.Lock()
	w.exitCode = code
	w.shutdownMu.Unlock()
	w.stopped.Store(true)
}

func (w *WorldManager) ExitCode() ExitCode {
	w.shutdownMu.Lock()
	defer w.shutdownMu.Unlock()
	return w.exitCode
}

func (w *WorldManager) updateShutdown(elapsed uint32) {
	w.shutdownMu.Lock()
	defer w.shutdownMu.Unlock()

	if w.IsStopped() || w.shutdownTimer == 0 {
		return
	}
	if w.shutdownTimer <= elapsed {
		if w.shutdownMask&ShutdownIdle == 0 || w.sessions.Len() == 0 {
			w.stopped.Store(true)
			return
		}
		w.shutdownTimer = 1
		return
	}
	w.shutdownTimer -= elapsed
	w.shutdownMsg(false, "")
}

// shutdownMsg announces the countdown at the usual thresholds. Idle
// shutdowns are silent. Callers hold shutdownMu.
func (w *WorldManager) shutdownMsg(force bool, reason string) {
	if w.shutdownMask&ShutdownIdle != 0 {
		return
	}
	t := w.shutdownTimer
	if !force && !announceAt(t) {
		return
	}

	text := (time.Duration(t) * time.Second).String() + "."
	if reason != "" {
		text += " - " + reason
	}
	msg := packet.ServerMsgShutdownTime
	if w.shutdownMask&ShutdownRestart != 0 {
		msg = packet.ServerMsgRestartTime
	}
	w.SendServerMessage(msg, text, nil)
}

func announceAt(secs uint32) bool {
	switch {
	case secs < 5*minute:
		return secs%15 == 0
	case secs < 15*minute:
		return secs%minute == 0
	case secs < 30*minute:
		return secs%(5*minute) == 0
	case secs < 12*hour:
		return secs%hour == 0
	default:
		return secs%(12*hour) == 0
	}
}
