package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-worldserver/internal/maps"
	"github.com/pixil98/go-worldserver/internal/world"
)

type WorldConfig struct {
	RealmID             uint32 `json:"realm_id"`
	PlayerLimit         int    `json:"player_limit"`
	DisconnectTolerance string `json:"disconnect_tolerance"`
	SessionTimeout      string `json:"session_timeout"`
	// Workers bounds how many map and subsystem updates run at once.
	Workers int `json:"workers"`

	// Timers overrides subsystem periods by timer name, e.g.
	// {"autobroadcast": "5m"}.
	Timers map[string]string `json:"timers"`

	Timezone           string `json:"timezone"`
	DailyResetHour     int    `json:"daily_reset_hour"`
	WeeklyResetDay     string `json:"weekly_reset_day"`
	MonthlyResetDay    int    `json:"monthly_reset_day"`
	RandomBGResetHour  int    `json:"random_bg_reset_hour"`
	GuildResetHour     int    `json:"guild_reset_hour"`
	CalendarDeleteHour int    `json:"calendar_delete_hour"`
	CurrencyResetHour  int    `json:"currency_reset_hour"`
	CurrencyResetDays  int    `json:"currency_reset_days"`
	LogRetention       string `json:"log_retention"`

	QuietHour            *int   `json:"quiet_hour"`
	GuidWarningFrequency string `json:"guid_warning_frequency"`
	GuidWarningThreshold uint64 `json:"guid_warning_threshold"`
	GuidAlertThreshold   uint64 `json:"guid_alert_threshold"`

	Motd []string    `json:"motd"`
	Maps []MapConfig `json:"maps"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.PlayerLimit < 0 {
		el.Add(fmt.Errorf("player_limit must not be negative"))
	}
	if c.Workers < 0 {
		el.Add(fmt.Errorf("workers must not be negative"))
	}
	for name, d := range c.Timers {
		if _, ok := world.ParseTimer(name); !ok {
			el.Add(fmt.Errorf("unknown timer %q", name))
			continue
		}
		if _, err := parseOptionalDuration("timers."+name, d); err != nil {
			el.Add(err)
		}
	}
	if _, err := c.location(); err != nil {
		el.Add(err)
	}
	if _, err := parseWeekday(c.WeeklyResetDay); err != nil {
		el.Add(err)
	}
	for name, h := range map[string]int{
		"daily_reset_hour":     c.DailyResetHour,
		"random_bg_reset_hour": c.RandomBGResetHour,
		"guild_reset_hour":     c.GuildResetHour,
		"calendar_delete_hour": c.CalendarDeleteHour,
		"currency_reset_hour":  c.CurrencyResetHour,
	} {
		if h < 0 || h > 23 {
			el.Add(fmt.Errorf("%s must be between 0 and 23", name))
		}
	}
	if c.QuietHour != nil && (*c.QuietHour < 0 || *c.QuietHour > 23) {
		el.Add(fmt.Errorf("quiet_hour must be between 0 and 23"))
	}
	if c.MonthlyResetDay < 0 || c.MonthlyResetDay > 28 {
		el.Add(fmt.Errorf("monthly_reset_day must be between 1 and 28"))
	}
	if c.GuidAlertThreshold > 0 && c.GuidWarningThreshold >= c.GuidAlertThreshold {
		el.Add(fmt.Errorf("guid_warning_threshold must be below guid_alert_threshold"))
	}
	for name, d := range map[string]string{
		"disconnect_tolerance":   c.DisconnectTolerance,
		"session_timeout":        c.SessionTimeout,
		"log_retention":          c.LogRetention,
		"guid_warning_frequency": c.GuidWarningFrequency,
	} {
		if _, err := parseOptionalDuration(name, d); err != nil {
			el.Add(err)
		}
	}

	if len(c.Maps) == 0 {
		el.Add(fmt.Errorf("at least one map is required"))
	}
	seen := make(map[[2]uint32]bool, len(c.Maps))
	for i, m := range c.Maps {
		k := [2]uint32{m.ID, m.Instance}
		if seen[k] {
			el.Add(fmt.Errorf("map %d: duplicate map %d instance %d", i, m.ID, m.Instance))
		}
		seen[k] = true
		if err := m.validate(); err != nil {
			el.Add(fmt.Errorf("map %d: %w", i, err))
		}
	}

	return el.Err()
}

// BuildWorldConfig converts the document into world tunables. Unset values
// keep the world defaults.
func (c *WorldConfig) BuildWorldConfig() (world.Config, error) {
	loc, err := c.location()
	if err != nil {
		return world.Config{}, err
	}
	weekday, err := parseWeekday(c.WeeklyResetDay)
	if err != nil {
		return world.Config{}, err
	}

	cfg := world.Config{
		RealmID:            c.RealmID,
		PlayerLimit:        c.PlayerLimit,
		DailyResetHour:     c.DailyResetHour,
		WeeklyResetDay:     weekday,
		MonthlyResetDay:    c.MonthlyResetDay,
		RandomBGResetHour:  c.RandomBGResetHour,
		GuildResetHour:     c.GuildResetHour,
		CalendarDeleteHour: c.CalendarDeleteHour,
		CurrencyResetHour:  c.CurrencyResetHour,
		CurrencyResetDays:  c.CurrencyResetDays,
		Location:           loc,
		QuietHour:          world.DefaultQuietHour,
		Motd:               c.Motd,
	}
	if c.QuietHour != nil {
		cfg.QuietHour = *c.QuietHour
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"disconnect_tolerance", c.DisconnectTolerance, &cfg.DisconnectTolerance},
		{"session_timeout", c.SessionTimeout, &cfg.SessionTimeout},
		{"log_retention", c.LogRetention, &cfg.LogRetention},
		{"guid_warning_frequency", c.GuidWarningFrequency, &cfg.GuidWarningFrequency},
	}
	for _, d := range durations {
		if *d.dst, err = parseOptionalDuration(d.name, d.value); err != nil {
			return world.Config{}, err
		}
	}

	if len(c.Timers) > 0 {
		cfg.Intervals = make(map[world.Timer]time.Duration, len(c.Timers))
	}
	for name, value := range c.Timers {
		t, ok := world.ParseTimer(name)
		if !ok {
			return world.Config{}, fmt.Errorf("unknown timer %q", name)
		}
		if cfg.Intervals[t], err = parseOptionalDuration("timers."+name, value); err != nil {
			return world.Config{}, err
		}
	}

	return cfg, nil
}

// Hosts reports whether id is one of the configured maps.
func (c *WorldConfig) Hosts(id uint32) bool {
	for _, m := range c.Maps {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (c *WorldConfig) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return world.DefaultWeeklyResetDay, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekly_reset_day %q", s)
}

// MapConfig describes one hosted map instance.
type MapConfig struct {
	ID                    uint32  `json:"id"`
	Instance              uint32  `json:"instance"`
	VisibilityRange       float64 `json:"visibility_range"`
	DynamicRespawn        bool    `json:"dynamic_respawn"`
	DynamicRespawnRate    float64 `json:"dynamic_respawn_rate"`
	DynamicRespawnMinimum string  `json:"dynamic_respawn_minimum"`
	FishingCatchChance    float64 `json:"fishing_catch_chance"`
}

func (m *MapConfig) validate() error {
	el := errors.NewErrorList()

	if m.VisibilityRange < 0 {
		el.Add(fmt.Errorf("visibility_range must not be negative"))
	}
	if m.DynamicRespawnRate < 0 {
		el.Add(fmt.Errorf("dynamic_respawn_rate must not be negative"))
	}
	if m.FishingCatchChance < 0 || m.FishingCatchChance > 1 {
		el.Add(fmt.Errorf("fishing_catch_chance must be between 0 and 1"))
	}
	if _, err := parseOptionalDuration("dynamic_respawn_minimum", m.DynamicRespawnMinimum); err != nil {
		el.Add(err)
	}

	return el.Err()
}

func (m *MapConfig) BuildMapConfig() (maps.Config, error) {
	minimum, err := parseOptionalDuration("dynamic_respawn_minimum", m.DynamicRespawnMinimum)
	if err != nil {
		return maps.Config{}, err
	}
	cfg := maps.Config{
		VisibilityRange:       m.VisibilityRange,
		DynamicRespawnRate:    m.DynamicRespawnRate,
		DynamicRespawnMinimum: minimum,
		FishingCatchChance:    m.FishingCatchChance,
	}
	if m.DynamicRespawn {
		cfg.DynamicRespawnMode = maps.RespawnModeZonePlayers
	}
	return cfg, nil
}
