package ports

import (
	"context"

	"tycoon/internal/domain"
)

// RoomStore persists exactly one game-state blob per room, overwritten
// wholesale on every accepted mutation.
type RoomStore interface {
	// Load returns the persisted state for the room, or (nil, nil) when the
	// room has never been persisted.
	Load(ctx context.Context, room string) (*domain.GameState, error)

	// Save replaces the persisted state for the room.
	Save(ctx context.Context, room string, state *domain.GameState) error
}
