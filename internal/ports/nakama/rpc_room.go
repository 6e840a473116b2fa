package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// matchRegistry is the slice of NakamaModule the room directory needs.
type matchRegistry interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// RoomJoinResponse is returned to clients resolving a room name.
type RoomJoinResponse struct {
	MatchID string `json:"match_id"`
	Room    string `json:"room"`
	IsNew   bool   `json:"is_new"`
}

// rpcRoomJoin resolves a room name to its single authoritative match,
// creating the match when the room is not currently instantiated. An empty
// room name yields a freshly generated room code.
//
// Payload: {"room": "my-room"} (optional).
// Returns: JSON RoomJoinResponse.
func rpcRoomJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req struct {
		Room string `json:"room"`
	}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
		}
	}

	resp, err := findOrCreateRoom(ctx, logger, nk, req.Room)
	if err != nil {
		logger.Error("RpcRoomJoin: %v", err)
		return "", runtime.NewError("Internal error", 13) // INTERNAL
	}

	b, _ := json.Marshal(resp)
	return string(b), nil
}

// findOrCreateRoom is the directory lookup: exactly one match per room name.
func findOrCreateRoom(ctx context.Context, logger runtime.Logger, registry matchRegistry, room string) (*RoomJoinResponse, error) {
	room = NormalizeRoomName(room)
	if room == "" {
		room = newRoomCode()
	}

	query := fmt.Sprintf("+label.game:%s +label.room:%s", gameName, room)
	limit := 1
	authoritative := true

	matches, err := registry.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	if len(matches) > 0 {
		logger.Debug("findOrCreateRoom: Room %s resolves to existing match %s", room, matches[0].MatchId)
		return &RoomJoinResponse{MatchID: matches[0].MatchId, Room: room, IsNew: false}, nil
	}

	matchID, err := registry.MatchCreate(ctx, MatchNameTycoon, map[string]interface{}{"room": room})
	if err != nil {
		return nil, fmt.Errorf("failed to create match for room %s: %w", room, err)
	}

	logger.Info("findOrCreateRoom: Created match %s for room %s", matchID, room)
	return &RoomJoinResponse{MatchID: matchID, Room: room, IsNew: true}, nil
}

// NormalizeRoomName lowercases the name and strips characters that would
// break label queries. Names are capped at 32 characters.
func NormalizeRoomName(room string) string {
	room = strings.ToLower(strings.TrimSpace(room))
	var b strings.Builder
	for _, r := range room {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= 32 {
			break
		}
	}
	return b.String()
}

// newRoomCode generates a short shareable room code.
func newRoomCode() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
