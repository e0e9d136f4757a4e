package world

import (
	"log/slog"
	"time"

	"github.com/pixil98/go-worldserver/internal/packet"
)

const (
	guidWarningLead  = 30 * time.Minute
	guidWarningSlack = 10 * time.Second
	guidAlertDelay   = 5 * time.Minute
)

func (w *WorldManager) IsGuidWarning() bool {
	w.guidMu.Lock()
	defer w.guidMu.Unlock()
	return w.guidWarn
}

func (w *WorldManager) IsGuidAlert() bool {
	w.guidMu.Lock()
	defer w.guidMu.Unlock()
	return w.guidAlert
}

// TriggerGuidWarning schedules a restart shortly before the next quiet hour
// that is still far enough away, and starts the periodic warning.
func (w *WorldManager) TriggerGuidWarning() {
	w.guidMu.Lock()
	defer w.guidMu.Unlock()

	cfg := w.config()
	now := w.clock.Now().In(cfg.Location)
	day := time.Date(now.Year(), now.Month(), now.Day(), cfg.QuietHour, 0, 0, 0, cfg.Location)
	for !now.Before(day.Add(-guidWarningLead - guidWarningSlack)) {
		day = day.AddDate(0, 0, 1)
	}
	w.warnShutdownTime = day.Add(-guidWarningLead)
	w.guidWarn = true

	slog.Warn("guid counter running low, restart scheduled", "restart_at", w.warnShutdownTime)
	w.sendGuidWarning()
}

// TriggerGuidAlert schedules an immediate short-notice restart.
func (w *WorldManager) TriggerGuidAlert() {
	w.guidMu.Lock()
	defer w.guidMu.Unlock()

	if !w.IsShuttingDown() {
		w.ShutdownServ(guidAlertDelay, ShutdownRestart, ExitRestart, w.config().GuidAlertMessage)
	}
	w.guidAlert = true
	w.guidWarn = false
	slog.Error("guid counter exhausted, restarting")
}

// sendGuidWarning repeats the warning to players. Callers hold guidMu.
func (w *WorldManager) sendGuidWarning() {
	if !w.IsShuttingDown() && w.guidWarn {
		w.SendServerMessage(packet.ServerMsgString, w.config().GuidWarningMessage, nil)
	}
	w.warnDiff = 0
}

func (w *WorldManager) updateGuidWarning(diff time.Duration) {
	w.guidMu.Lock()
	defer w.guidMu.Unlock()

	if !w.guidWarn || w.guidAlert {
		return
	}
	w.warnDiff += diff
	if !w.clock.Now().Before(w.warnShutdownTime) {
		if !w.IsShuttingDown() {
			w.ShutdownServ(guidWarningLead, ShutdownRestart, ExitRestart, "")
			w.warnShutdownTime = w.warnShutdownTime.Add(time.Hour)
		}
		return
	}
	if w.warnDiff > w.config().GuidWarningFrequency {
		w.sendGuidWarning()
	}
}
