package persistence

var schema = []string{
	`CREATE TABLE IF NOT EXISTS world_variable (
		id TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS world_state_value (
		id INTEGER PRIMARY KEY,
		value INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS respawn (
		type INTEGER NOT NULL,
		spawn_id INTEGER NOT NULL,
		respawn_time INTEGER NOT NULL,
		map_id INTEGER NOT NULL,
		instance_id INTEGER NOT NULL,
		PRIMARY KEY (type, spawn_id, instance_id)
	);`,
	`CREATE TABLE IF NOT EXISTS gameobject_spawn (
		spawn_id INTEGER PRIMARY KEY,
		template TEXT NOT NULL,
		map_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		o REAL NOT NULL DEFAULT 0,
		spawn_group INTEGER NOT NULL DEFAULT 0,
		respawn_secs INTEGER NOT NULL DEFAULT 0,
		anim_progress INTEGER NOT NULL DEFAULT 0,
		state INTEGER NOT NULL DEFAULT 1,
		phase INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_gameobject_spawn_map ON gameobject_spawn(map_id);`,
	`CREATE TABLE IF NOT EXISTS spawn_group (
		group_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		flags INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS account (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		last_ip TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS account_banned (
		account_id INTEGER NOT NULL,
		ban_date INTEGER NOT NULL,
		unban_date INTEGER NOT NULL,
		banned_by TEXT NOT NULL,
		reason TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (account_id, ban_date)
	);`,
	`CREATE TABLE IF NOT EXISTS ip_banned (
		ip TEXT PRIMARY KEY,
		ban_date INTEGER NOT NULL,
		unban_date INTEGER NOT NULL,
		banned_by TEXT NOT NULL,
		reason TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS uptime (
		realm_id INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		uptime INTEGER NOT NULL DEFAULT 0,
		max_players INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (realm_id, start_time)
	);`,
	`CREATE TABLE IF NOT EXISTS autobroadcast (
		id INTEGER PRIMARY KEY,
		realm_id INTEGER NOT NULL DEFAULT -1,
		weight INTEGER NOT NULL DEFAULT 1,
		text TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS logs (
		time INTEGER NOT NULL,
		realm INTEGER NOT NULL,
		type TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 0,
		string TEXT
	);`,
}
