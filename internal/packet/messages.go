package packet

// AuthResult is the status sent in an AuthResponse.
type AuthResult uint8

const (
	AuthOK AuthResult = iota
	AuthWaitQueue
	AuthFailed
)

type AuthResponse struct {
	Result        AuthResult `msgpack:"result"`
	QueuePosition int        `msgpack:"queue_pos,omitempty"`
}

type AuthWaitQueueMsg struct {
	Position int `msgpack:"pos"`
}

// ServerMessageType selects the client-side template of a server message.
type ServerMessageType uint8

const (
	ServerMsgShutdownTime ServerMessageType = iota + 1
	ServerMsgRestartTime
	ServerMsgString
	ServerMsgShutdownCancelled
	ServerMsgRestartCancelled
)

type ServerMessage struct {
	Type ServerMessageType `msgpack:"type"`
	Text string            `msgpack:"text"`
}

type ChatBroadcast struct {
	Text string `msgpack:"text"`
}

type Motd struct {
	Lines []string `msgpack:"lines"`
}

type KickReason struct {
	Reason string `msgpack:"reason"`
}

type WorldStateValue struct {
	ID    int32 `msgpack:"id"`
	Value int32 `msgpack:"value"`
}

type InitWorldStates struct {
	MapID  uint32            `msgpack:"map"`
	AreaID uint32            `msgpack:"area"`
	States []WorldStateValue `msgpack:"states"`
}

type UpdateWorldState struct {
	ID     int32 `msgpack:"id"`
	Value  int32 `msgpack:"value"`
	Hidden bool  `msgpack:"hidden"`
}

type GameObjectDespawn struct {
	GUID string `msgpack:"guid"`
}

type GameObjectCustomAnim struct {
	GUID   string `msgpack:"guid"`
	AnimID uint32 `msgpack:"anim"`
}

type DestructibleBuildingDamage struct {
	Target  string `msgpack:"target"`
	Caster  string `msgpack:"caster"`
	Damage  int32  `msgpack:"damage"`
	SpellID uint32 `msgpack:"spell"`
}

type CapturePointUpdate struct {
	GUID  string `msgpack:"guid"`
	State uint8  `msgpack:"state"`
}

type BroadcastText struct {
	TextID uint32 `msgpack:"text"`
	Team   uint8  `msgpack:"team"`
	Source string `msgpack:"source,omitempty"`
}

type LootResponse struct {
	Owner string   `msgpack:"owner"`
	Items []uint32 `msgpack:"items"`
}

// GameObjectSetStateLocal overrides the state of one object for one client.
type GameObjectSetStateLocal struct {
	GUID  string `msgpack:"guid"`
	State uint8  `msgpack:"state"`
}

// FishResult is the body of the fishing outcome messages.
type FishResult struct {
	GUID string `msgpack:"guid"`
}

// Hello is the first frame a client sends. A non-zero ConnectKey with
// Instance set attaches the connection to an existing session instead of
// opening a new one.
type Hello struct {
	Account    string `msgpack:"account"`
	ConnectKey uint64 `msgpack:"connect_key,omitempty"`
	Instance   bool   `msgpack:"instance,omitempty"`
}
