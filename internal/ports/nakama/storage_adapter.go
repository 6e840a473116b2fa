package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"tycoon/internal/domain"
	"tycoon/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const roomsCollection = "rooms"

// NakamaRoomStore implements ports.RoomStore on Nakama's storage engine.
// One system-owned object per room, keyed by room name, overwritten wholesale
// on every accepted mutation.
type NakamaRoomStore struct {
	nk runtime.NakamaModule
}

// NewNakamaRoomStore creates a new room store adapter.
func NewNakamaRoomStore(nk runtime.NakamaModule) *NakamaRoomStore {
	return &NakamaRoomStore{nk: nk}
}

// Load reads the persisted state blob for the room. Returns (nil, nil) when
// the room has never been persisted.
func (a *NakamaRoomStore) Load(ctx context.Context, room string) (*domain.GameState, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: roomsCollection, Key: room},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read room state: %w", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}

	var state domain.GameState
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room state: %w", err)
	}
	return &state, nil
}

// Save overwrites the persisted state blob for the room.
func (a *NakamaRoomStore) Save(ctx context.Context, room string, state *domain.GameState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room state: %w", err)
	}

	writes := []*runtime.StorageWrite{
		{
			Collection:      roomsCollection,
			Key:             room,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}
	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to write room state: %w", err)
	}
	return nil
}

var _ ports.RoomStore = (*NakamaRoomStore)(nil)
