package nakama

const (
	// RpcRoomJoin is the RPC id clients call to resolve a room name to a match id.
	RpcRoomJoin = "room_join"

	// RpcRoomToken is the RPC id clients call to obtain a signed room invite token.
	RpcRoomToken = "room_token"

	// MatchNameTycoon is the authoritative match handler name registered with Nakama.
	MatchNameTycoon = "tycoon_room"

	// gameName tags match labels so directory queries only see tycoon rooms.
	gameName = "tycoon"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStart      int64 = 1
	OpRoll       int64 = 2
	OpBuy        int64 = 3
	OpEndTurn    int64 = 4
	OpChat       int64 = 5
	OpBecomeHost int64 = 6

	// Server -> Client events
	OpHello    int64 = 101 // sent privately on join
	OpPresence int64 = 102
	OpState    int64 = 103
	OpHost     int64 = 104
	OpError    int64 = 105 // sent privately
)
