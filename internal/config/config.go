package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// RoomConfig carries server tunables for room matches. Game rule constants
// (cash, bonuses, board data) are fixed in the domain package, not here.
type RoomConfig struct {
	// LogRetention bounds how many log lines are retained in persisted state.
	LogRetention int `json:"log_retention"`
	// RequireInvite gates joins behind a signed invite token when true.
	RequireInvite bool `json:"require_invite"`
	// InviteTTLSeconds is the lifetime of issued invite tokens.
	InviteTTLSeconds int `json:"invite_ttl_seconds"`
}

const (
	defaultLogRetention = 200
	defaultInviteTTL    = 900
)

var (
	cfg      *RoomConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadRoomConfig loads the room configuration from the given path.
func LoadRoomConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read room config: %w", err)
			return
		}

		var c RoomConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal room config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetRoomConfig returns the global room configuration, or nil when unloaded.
func GetRoomConfig() *RoomConfig {
	return cfg
}

// GetLogRetention returns the persisted-log line cap.
func GetLogRetention() int {
	if cfg == nil || cfg.LogRetention <= 0 {
		return defaultLogRetention
	}
	return cfg.LogRetention
}

// InviteRequired reports whether joins must present an invite token.
func InviteRequired() bool {
	return cfg != nil && cfg.RequireInvite
}

// GetInviteTTLSeconds returns the invite token lifetime in seconds.
func GetInviteTTLSeconds() int {
	if cfg == nil || cfg.InviteTTLSeconds <= 0 {
		return defaultInviteTTL
	}
	return cfg.InviteTTLSeconds
}
