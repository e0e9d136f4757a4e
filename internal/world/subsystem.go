package world

import (
	"context"
)

// Timer names a periodic subsystem timer. Timers are checked in declaration
// order every tick.
type Timer int

const (
	TimerWhoList Timer = iota
	TimerUptime
	TimerLogCleanup
	TimerAutobroadcast
	TimerDatabasePing
	TimerMailReturn
	TimerAuctions
	TimerBlackMarket
	TimerChannelSave
	TimerCorpses
	TimerEvents
	TimerGuildSave
)

var timerOrder = []Timer{
	TimerWhoList,
	TimerUptime,
	TimerLogCleanup,
	TimerAutobroadcast,
	TimerDatabasePing,
	TimerMailReturn,
	TimerAuctions,
	TimerBlackMarket,
	TimerChannelSave,
	TimerCorpses,
	TimerEvents,
	TimerGuildSave,
}

var timerNames = map[Timer]string{
	TimerWhoList:       "who_list",
	TimerUptime:        "uptime",
	TimerLogCleanup:    "log_cleanup",
	TimerAutobroadcast: "autobroadcast",
	TimerDatabasePing:  "database_ping",
	TimerMailReturn:    "mail_return",
	TimerAuctions:      "auctions",
	TimerBlackMarket:   "black_market",
	TimerChannelSave:   "channel_save",
	TimerCorpses:       "corpses",
	TimerEvents:        "events",
	TimerGuildSave:     "guild_save",
}

func (t Timer) String() string {
	if n, ok := timerNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseTimer looks a timer up by name.
func ParseTimer(name string) (Timer, bool) {
	for t, n := range timerNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Subsystem is periodic work run on the dispatcher when its timer passes.
type Subsystem interface {
	Run(ctx context.Context) error
}

type SubsystemFunc func(ctx context.Context) error

func (f SubsystemFunc) Run(ctx context.Context) error { return f(ctx) }

// RegisterSubsystem attaches s to timer t. Several subsystems may share a
// timer; they run concurrently. Registration must happen before the first
// tick.
func (w *WorldManager) RegisterSubsystem(t Timer, s Subsystem) {
	w.subsystems[t] = append(w.subsystems[t], s)
}
