package packet

// Opcode identifies the message carried by a Packet.
type Opcode uint16

const (
	OpcodeUnknown Opcode = iota
	OpcodeAuthResponse
	OpcodeAuthWaitQueue
	OpcodeServerMessage
	OpcodeChatBroadcast
	OpcodeMotd
	OpcodeKickReason
	OpcodeInitWorldStates
	OpcodeUpdateWorldState
	OpcodeUpdateObject
	OpcodeCompressedUpdateObject
	OpcodeGameObjectDespawn
	OpcodeGameObjectCustomAnim
	OpcodeDestructibleBuildingDamage
	OpcodeFishNotHooked
	OpcodeFishEscaped
	OpcodeCapturePointUpdate
	OpcodeBroadcastText
	OpcodeLootResponse
	OpcodeGameObjectSetStateLocal
	OpcodeHello
)

var opcodeNames = map[Opcode]string{
	OpcodeAuthResponse:               "AUTH_RESPONSE",
	OpcodeAuthWaitQueue:              "AUTH_WAIT_QUEUE",
	OpcodeServerMessage:              "SERVER_MESSAGE",
	OpcodeChatBroadcast:              "CHAT_BROADCAST",
	OpcodeMotd:                       "MOTD",
	OpcodeKickReason:                 "KICK_REASON",
	OpcodeInitWorldStates:            "INIT_WORLD_STATES",
	OpcodeUpdateWorldState:           "UPDATE_WORLD_STATE",
	OpcodeUpdateObject:               "UPDATE_OBJECT",
	OpcodeCompressedUpdateObject:     "COMPRESSED_UPDATE_OBJECT",
	OpcodeGameObjectDespawn:          "GAMEOBJECT_DESPAWN",
	OpcodeGameObjectCustomAnim:       "GAMEOBJECT_CUSTOM_ANIM",
	OpcodeDestructibleBuildingDamage: "DESTRUCTIBLE_BUILDING_DAMAGE",
	OpcodeFishNotHooked:              "FISH_NOT_HOOKED",
	OpcodeFishEscaped:                "FISH_ESCAPED",
	OpcodeCapturePointUpdate:         "CAPTURE_POINT_UPDATE",
	OpcodeBroadcastText:              "BROADCAST_TEXT",
	OpcodeLootResponse:               "LOOT_RESPONSE",
	OpcodeGameObjectSetStateLocal:    "GAMEOBJECT_SET_STATE_LOCAL",
	OpcodeHello:                      "HELLO",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// compressed maps an opcode to the variant used when its body is compressed.
var compressed = map[Opcode]Opcode{
	OpcodeUpdateObject: OpcodeCompressedUpdateObject,
}

func (o Opcode) uncompressed() (Opcode, bool) {
	for plain, c := range compressed {
		if c == o {
			return plain, true
		}
	}
	return o, false
}
