package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"tycoon/internal/app"
	"tycoon/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// inviteService is overridable for tests; when nil the RPC builds one from
// the runtime environment.
var inviteService *app.InviteService

// RpcGetRoomToken issues a signed invite token admitting the calling user to
// a room. Clients present the token in the join metadata of private rooms.
//
// Payload: {"room": "my-room", "spectate": false}
// Returns: {"token": "..."}
func RpcGetRoomToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("User not authenticated", 16) // UNAUTHENTICATED
	}

	var req struct {
		Room     string `json:"room"`
		Spectate bool   `json:"spectate"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
	}

	room := NormalizeRoomName(req.Room)
	if room == "" {
		return "", runtime.NewError("Room required", 3)
	}

	svc := inviteService
	if svc == nil {
		env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
		secret := env["tycoon_invite_secret"]
		issuer := env["tycoon_invite_issuer"]
		if secret == "" || issuer == "" {
			secret = "test-secret"
			issuer = "test-issuer"
			logger.Warn("Invite credentials missing from env, using test defaults.")
		}
		svc = app.NewInviteService(secret, issuer)
	}

	ttl := time.Duration(config.GetInviteTTLSeconds()) * time.Second
	token, err := svc.Grant(userID, room, req.Spectate, ttl)
	if err != nil {
		logger.Error("Failed to generate invite token: %v", err)
		return "", runtime.NewError("Internal error", 13) // INTERNAL
	}

	res := map[string]string{
		"token": token,
	}
	resBytes, _ := json.Marshal(res)
	return string(resBytes), nil
}
