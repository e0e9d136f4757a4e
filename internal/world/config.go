package world

import (
	"time"
)

// Config holds the world tunables. They are read at startup and on
// ReloadConfig only.
type Config struct {
	RealmID uint32

	// PlayerLimit caps active sessions. Zero disables the admission queue.
	PlayerLimit int
	// DisconnectTolerance keeps a recently disconnected account out of the
	// queue when it reconnects. Zero disables it.
	DisconnectTolerance time.Duration
	SessionTimeout      time.Duration

	// Intervals overrides the default period of a subsystem timer.
	Intervals map[Timer]time.Duration

	DailyResetHour     int
	WeeklyResetDay     time.Weekday
	MonthlyResetDay    int
	RandomBGResetHour  int
	GuildResetHour     int
	CalendarDeleteHour int
	CurrencyResetHour  int
	CurrencyResetDays  int
	Location           *time.Location

	LogRetention time.Duration

	// QuietHour is the local hour a guid shortage restart is scheduled
	// ahead of.
	QuietHour            int
	GuidWarningFrequency time.Duration
	GuidWarningMessage   string
	GuidAlertMessage     string

	Motd []string
}

const (
	DefaultSessionTimeout       = 60 * time.Second
	DefaultResetHour            = 6
	DefaultWeeklyResetDay       = time.Wednesday
	DefaultCurrencyResetHour    = 3
	DefaultCurrencyResetDays    = 7
	DefaultLogRetention         = 14 * 24 * time.Hour
	DefaultQuietHour            = 3
	DefaultGuidWarningFrequency = 30 * time.Minute
)

var defaultIntervals = map[Timer]time.Duration{
	TimerWhoList:       5 * time.Second,
	TimerUptime:        10 * time.Minute,
	TimerLogCleanup:    10 * time.Minute,
	TimerAutobroadcast: 10 * time.Minute,
	TimerDatabasePing:  30 * time.Minute,
	TimerMailReturn:    15 * time.Minute,
	TimerAuctions:      time.Minute,
	TimerBlackMarket:   time.Minute,
	TimerChannelSave:   15 * time.Minute,
	TimerCorpses:       20 * time.Minute,
	TimerEvents:        time.Minute,
	TimerGuildSave:     15 * time.Minute,
}

func (c Config) withDefaults() Config {
	if c.SessionTimeout == 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.DailyResetHour <= 0 || c.DailyResetHour > 23 {
		c.DailyResetHour = DefaultResetHour
	}
	if c.WeeklyResetDay < time.Sunday || c.WeeklyResetDay > time.Saturday {
		c.WeeklyResetDay = DefaultWeeklyResetDay
	}
	if c.MonthlyResetDay < 1 || c.MonthlyResetDay > 28 {
		c.MonthlyResetDay = 1
	}
	if c.RandomBGResetHour <= 0 || c.RandomBGResetHour > 23 {
		c.RandomBGResetHour = DefaultResetHour
	}
	if c.GuildResetHour <= 0 || c.GuildResetHour > 23 {
		c.GuildResetHour = DefaultResetHour
	}
	if c.CalendarDeleteHour <= 0 || c.CalendarDeleteHour > 23 {
		c.CalendarDeleteHour = DefaultResetHour
	}
	if c.CurrencyResetHour <= 0 || c.CurrencyResetHour > 23 {
		c.CurrencyResetHour = DefaultCurrencyResetHour
	}
	if c.CurrencyResetDays <= 0 {
		c.CurrencyResetDays = DefaultCurrencyResetDays
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.LogRetention <= 0 {
		c.LogRetention = DefaultLogRetention
	}
	if c.QuietHour < 0 || c.QuietHour > 23 {
		c.QuietHour = DefaultQuietHour
	}
	if c.GuidWarningFrequency == 0 {
		c.GuidWarningFrequency = DefaultGuidWarningFrequency
	}
	if c.GuidWarningMessage == "" {
		c.GuidWarningMessage = "There will be an unscheduled server restart at 03:00. The server will be available again shortly after."
	}
	if c.GuidAlertMessage == "" {
		c.GuidAlertMessage = "Unscheduled restart"
	}

	intervals := make(map[Timer]time.Duration, len(defaultIntervals))
	for t, d := range defaultIntervals {
		intervals[t] = d
	}
	for t, d := range c.Intervals {
		if d > 0 {
			intervals[t] = d
		}
	}
	c.Intervals = intervals
	return c
}
