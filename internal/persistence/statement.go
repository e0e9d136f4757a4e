package persistence

// StatementID names one of the fixed statements the server issues.
type StatementID int

const (
	SelWorldVariables StatementID = iota + 1
	RepWorldVariable
	SelWorldStateValues
	RepWorldStateValue
	SelRespawns
	RepRespawn
	DelRespawn
	DelRespawnsForInstance
	SelGameObjectSpawns
	SelSpawnGroups
	InsGameObjectSpawn
	RepSpawnGroup
	SelAccountIDByName
	SelAccountBanned
	InsAccountBanned
	UpdAccountBanInactive
	SelIPBanned
	InsIPBanned
	DelIPBanned
	SelAccountsByIP
	InsUptime
	UpdUptime
	DelOldLogs
	SelAutobroadcasts
	InsAutobroadcast
	InsAccount
	UpdAccountLastIP
	Ping
)

var statements = map[StatementID]string{
	SelWorldVariables:      `SELECT id, value FROM world_variable`,
	RepWorldVariable:       `REPLACE INTO world_variable (id, value) VALUES (?, ?)`,
	SelWorldStateValues:    `SELECT id, value FROM world_state_value`,
	RepWorldStateValue:     `REPLACE INTO world_state_value (id, value) VALUES (?, ?)`,
	SelRespawns:            `SELECT type, spawn_id, respawn_time FROM respawn WHERE map_id = ? AND instance_id = ?`,
	RepRespawn:             `REPLACE INTO respawn (type, spawn_id, respawn_time, map_id, instance_id) VALUES (?, ?, ?, ?, ?)`,
	DelRespawn:             `DELETE FROM respawn WHERE type = ? AND spawn_id = ? AND map_id = ? AND instance_id = ?`,
	DelRespawnsForInstance: `DELETE FROM respawn WHERE map_id = ? AND instance_id = ?`,
	SelGameObjectSpawns:    `SELECT spawn_id, template, map_id, x, y, z, o, spawn_group, respawn_secs, anim_progress, state, phase
		FROM gameobject_spawn WHERE map_id = ?`,
	SelSpawnGroups:     `SELECT group_id, name, flags FROM spawn_group`,
	InsGameObjectSpawn: `INSERT INTO gameobject_spawn (spawn_id, template, map_id, x, y, z, o, spawn_group, respawn_secs, anim_progress, state, phase)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	RepSpawnGroup:         `REPLACE INTO spawn_group (group_id, name, flags) VALUES (?, ?, ?)`,
	SelAccountIDByName:    `SELECT id FROM account WHERE username = ?`,
	SelAccountBanned:      `SELECT 1 FROM account_banned WHERE account_id = ? AND active = 1`,
	InsAccountBanned:      `INSERT INTO account_banned (account_id, ban_date, unban_date, banned_by, reason, active) VALUES (?, ?, ?, ?, ?, 1)`,
	UpdAccountBanInactive: `UPDATE account_banned SET active = 0 WHERE account_id = ? AND active = 1`,
	SelIPBanned:           `SELECT 1 FROM ip_banned WHERE ip = ?`,
	InsIPBanned:           `INSERT INTO ip_banned (ip, ban_date, unban_date, banned_by, reason) VALUES (?, ?, ?, ?, ?)`,
	DelIPBanned:           `DELETE FROM ip_banned WHERE ip = ?`,
	SelAccountsByIP:       `SELECT id, username FROM account WHERE last_ip = ?`,
	InsUptime:             `INSERT INTO uptime (realm_id, start_time, uptime, max_players) VALUES (?, ?, 0, 0)`,
	UpdUptime:             `UPDATE uptime SET uptime = ?, max_players = ? WHERE realm_id = ? AND start_time = ?`,
	DelOldLogs:            `DELETE FROM logs WHERE time < ?`,
	SelAutobroadcasts:     `SELECT id, weight, text FROM autobroadcast WHERE realm_id = ? OR realm_id = -1`,
	InsAutobroadcast:      `INSERT INTO autobroadcast (id, realm_id, weight, text) VALUES (?, ?, ?, ?)`,
	InsAccount:            `INSERT INTO account (username, last_ip) VALUES (?, ?)`,
	UpdAccountLastIP:      `UPDATE account SET last_ip = ? WHERE id = ?`,
	Ping:                  `SELECT 1`,
}

// Statement is a prepared statement reference with positional arguments.
type Statement struct {
	ID   StatementID
	Args []any
}

// Prepare binds args to the statement id.
func Prepare(id StatementID, args ...any) Statement {
	return Statement{ID: id, Args: args}
}

// SetArg replaces the argument at position i, growing the list as needed.
func (s *Statement) SetArg(i int, v any) {
	for len(s.Args) <= i {
		s.Args = append(s.Args, nil)
	}
	s.Args[i] = v
}
