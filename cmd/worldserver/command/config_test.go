package command

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-worldserver/internal/maps"
	"github.com/pixil98/go-worldserver/internal/world"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		TickInterval: "50ms",
		Listeners:    []ListenerConfig{{Port: 8085}},
		Storage: StorageConfig{
			Database:    filepath.Join(dir, "world.db"),
			WorldStates: AssetConfig{Path: dir},
			GameObjects: AssetConfig{Path: dir},
		},
		World: WorldConfig{
			Maps: []MapConfig{{ID: 571}},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	hour := 24
	tests := map[string]struct {
		mutate  func(c *Config)
		wantErr string
	}{
		"valid": {
			mutate: func(*Config) {},
		},
		"tick too long": {
			mutate:  func(c *Config) { c.TickInterval = "2s" },
			wantErr: "tick_interval must be between",
		},
		"bad tick": {
			mutate:  func(c *Config) { c.TickInterval = "soon" },
			wantErr: "parsing tick_interval",
		},
		"no listeners": {
			mutate:  func(c *Config) { c.Listeners = nil },
			wantErr: "at least one listener",
		},
		"listener without port": {
			mutate:  func(c *Config) { c.Listeners[0].Port = 0 },
			wantErr: "listener 0: port must be set",
		},
		"listener path": {
			mutate:  func(c *Config) { c.Listeners[0].Path = "ws" },
			wantErr: "must start with /",
		},
		"missing database": {
			mutate:  func(c *Config) { c.Storage.Database = "" },
			wantErr: "database is required",
		},
		"missing templates": {
			mutate:  func(c *Config) { c.Storage.GameObjects.Path = "/does/not/exist" },
			wantErr: "game_objects: invalid path",
		},
		"bad nats timeout": {
			mutate:  func(c *Config) { c.Nats.StartTimeout = "later" },
			wantErr: "parsing start_timeout",
		},
		"unknown timer": {
			mutate:  func(c *Config) { c.World.Timers = map[string]string{"lottery": "1m"} },
			wantErr: `unknown timer "lottery"`,
		},
		"bad timer duration": {
			mutate:  func(c *Config) { c.World.Timers = map[string]string{"autobroadcast": "-1m"} },
			wantErr: "timers.autobroadcast must not be negative",
		},
		"bad weekday": {
			mutate:  func(c *Config) { c.World.WeeklyResetDay = "someday" },
			wantErr: "unknown weekly_reset_day",
		},
		"bad quiet hour": {
			mutate:  func(c *Config) { c.World.QuietHour = &hour },
			wantErr: "quiet_hour must be between 0 and 23",
		},
		"bad timezone": {
			mutate:  func(c *Config) { c.World.Timezone = "Mars/Olympus" },
			wantErr: "loading timezone",
		},
		"guid thresholds inverted": {
			mutate: func(c *Config) {
				c.World.GuidWarningThreshold = 10
				c.World.GuidAlertThreshold = 5
			},
			wantErr: "guid_warning_threshold must be below",
		},
		"no maps": {
			mutate:  func(c *Config) { c.World.Maps = nil },
			wantErr: "at least one map",
		},
		"duplicate map": {
			mutate:  func(c *Config) { c.World.Maps = append(c.World.Maps, MapConfig{ID: 571}) },
			wantErr: "duplicate map 571 instance 0",
		},
		"bad catch chance": {
			mutate:  func(c *Config) { c.World.Maps[0].FishingCatchChance = 2 },
			wantErr: "map 0: fishing_catch_chance",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig(t)
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWorldConfig_BuildWorldConfig(t *testing.T) {
	quiet := 0
	c := WorldConfig{
		RealmID:             2,
		PlayerLimit:         100,
		DisconnectTolerance: "30s",
		SessionTimeout:      "2m",
		Timers:              map[string]string{"autobroadcast": "5m", "who_list": "1s"},
		Timezone:            "UTC",
		WeeklyResetDay:      "tuesday",
		QuietHour:           &quiet,
		Motd:                []string{"welcome"},
	}

	cfg, err := c.BuildWorldConfig()
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "realm", cfg.RealmID, uint32(2))
	testutil.AssertEqual(t, "limit", cfg.PlayerLimit, 100)
	testutil.AssertEqual(t, "tolerance", cfg.DisconnectTolerance, 30*time.Second)
	testutil.AssertEqual(t, "timeout", cfg.SessionTimeout, 2*time.Minute)
	testutil.AssertEqual(t, "autobroadcast", cfg.Intervals[world.TimerAutobroadcast], 5*time.Minute)
	testutil.AssertEqual(t, "who list", cfg.Intervals[world.TimerWhoList], time.Second)
	testutil.AssertEqual(t, "timezone", cfg.Location.String(), "UTC")
	testutil.AssertEqual(t, "weekday", cfg.WeeklyResetDay, time.Tuesday)
	testutil.AssertEqual(t, "quiet hour", cfg.QuietHour, 0)
	testutil.AssertEqual(t, "motd", len(cfg.Motd), 1)
}

func TestWorldConfig_Defaults(t *testing.T) {
	cfg, err := (&WorldConfig{}).BuildWorldConfig()
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "weekday", cfg.WeeklyResetDay, world.DefaultWeeklyResetDay)
	testutil.AssertEqual(t, "quiet hour", cfg.QuietHour, world.DefaultQuietHour)
	testutil.AssertEqual(t, "no overrides", len(cfg.Intervals), 0)
	testutil.AssertEqual(t, "local time", cfg.Location, time.Local, cmp.Comparer(func(a, b *time.Location) bool { return a == b }))
}

func TestWorldConfig_Hosts(t *testing.T) {
	c := WorldConfig{Maps: []MapConfig{{ID: 0}, {ID: 571, Instance: 1}}}
	testutil.AssertEqual(t, "eastern kingdoms", c.Hosts(0), true)
	testutil.AssertEqual(t, "northrend", c.Hosts(571), true)
	testutil.AssertEqual(t, "outland", c.Hosts(530), false)
}

func TestMapConfig_BuildMapConfig(t *testing.T) {
	tests := map[string]struct {
		cfg     MapConfig
		expMode maps.RespawnMode
		expMin  time.Duration
	}{
		"static respawns": {
			cfg:     MapConfig{ID: 1},
			expMode: maps.RespawnModeOff,
		},
		"dynamic respawns": {
			cfg:     MapConfig{ID: 1, DynamicRespawn: true, DynamicRespawnMinimum: "30s"},
			expMode: maps.RespawnModeZonePlayers,
			expMin:  30 * time.Second,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := tt.cfg.BuildMapConfig()
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, "mode", got.DynamicRespawnMode, tt.expMode)
			testutil.AssertEqual(t, "minimum", got.DynamicRespawnMinimum, tt.expMin)
		})
	}
}

func TestListenerType_UnmarshalText(t *testing.T) {
	var c ListenerConfig
	err := json.Unmarshal([]byte(`{"protocol":"websocket","port":8085,"path":"/game"}`), &c)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "protocol", c.Protocol, ListenerTypeWebsocket)
	testutil.AssertEqual(t, "path", c.Path, "/game")

	err = json.Unmarshal([]byte(`{"protocol":"telnet","port":23}`), &c)
	testutil.AssertErrorContains(t, err, "unknown listener type: telnet")
}
