package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"tycoon/internal/app"
	"tycoon/internal/config"
	"tycoon/internal/domain"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// sessionMeta is per-connection identity metadata. It lives only as long as
// the presence; nothing here survives an actor restart.
type sessionMeta struct {
	Name      string
	Spectator bool
}

// MatchState holds the authoritative runtime state for one room. The match
// loop is the single serialization point for every mutation of Game.
type MatchState struct {
	Room      string                      // persistence key and label value
	Game      *domain.GameState           // authoritative game state
	HostID    string                      // current host, recomputed per instance, never persisted
	Presences map[string]runtime.Presence // userID -> live channel
	Sessions  map[string]sessionMeta      // userID -> session metadata
	App       *app.Service                // use-cases with persistence baked in
	Invites   *app.InviteService          // non-nil when joins require an invite token

	// pendingJoins stages metadata captured in MatchJoinAttempt until the
	// corresponding MatchJoin fires.
	pendingJoins map[string]sessionMeta
}

// hostHasSession reports whether the current host id has a live connection.
func (ms *MatchState) hostHasSession() bool {
	_, ok := ms.Presences[ms.HostID]
	return ok
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the room's match instance is created. It loads the
// persisted game state when present, so an evicted room resumes with full
// state fidelity and an empty session set.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := config.LoadRoomConfig("data/room_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load room config: %v", err)
	}

	room, _ := params["room"].(string)
	if room == "" {
		// Direct match creation without the directory RPC; fall back to the
		// match id so the persistence key is still stable.
		if matchID, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok {
			room = matchID
		}
	}
	if room == "" {
		logger.Error("MatchInit: No room name available.")
		return nil, 0, ""
	}

	svc := app.NewService(NewNakamaRoomStore(nk), room, config.GetLogRetention())
	game, err := svc.LoadOrCreate(ctx, newDiceSeed())
	if err != nil {
		logger.Error("MatchInit: Failed to load room %s: %v", room, err)
		return nil, 0, ""
	}

	state := &MatchState{
		Room:         room,
		Game:         game,
		App:          svc,
		Presences:    make(map[string]runtime.Presence),
		Sessions:     make(map[string]sessionMeta),
		pendingJoins: make(map[string]sessionMeta),
	}

	if config.InviteRequired() {
		env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
		secret := env["tycoon_invite_secret"]
		issuer := env["tycoon_invite_issuer"]
		if secret == "" || issuer == "" {
			logger.Warn("MatchInit: Invite enforcement enabled but credentials missing from env; joins are open.")
		} else {
			state.Invites = app.NewInviteService(secret, issuer)
		}
	}

	labelBytes, err := json.Marshal(buildLabel(state))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

// MatchJoinAttempt validates the connecting identity and stages its session
// metadata (display name, spectator flag) for MatchJoin.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	meta := sessionMeta{
		Name:      metadata["name"],
		Spectator: metadata["spectate"] == "1" || metadata["spectate"] == "true",
	}

	if matchState.Invites != nil {
		claims, err := matchState.Invites.Verify(metadata["token"], presence.GetUserId(), matchState.Room)
		if err != nil {
			logger.Warn("MatchJoinAttempt: Rejected %s: %v", presence.GetUserId(), err)
			return matchState, false, "invite required"
		}
		if claims.Spectate {
			// Spectator grants never occupy a seat regardless of the query flag.
			meta.Spectator = true
		}
	}

	if meta.Name == "" {
		meta.Name = presence.GetUsername()
	}
	if meta.Name == "" {
		meta.Name = guestName()
	}

	matchState.pendingJoins[presence.GetUserId()] = meta
	return matchState, true, ""
}

// MatchJoin registers sessions, seats non-spectators while the lobby is open,
// assigns the host when none is designated, greets each joiner privately and
// broadcasts the updated presence list.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()

		meta, staged := matchState.pendingJoins[userID]
		if staged {
			delete(matchState.pendingJoins, userID)
		} else {
			meta = sessionMeta{Name: guestName()}
		}

		matchState.Presences[userID] = p
		matchState.Sessions[userID] = meta

		if !meta.Spectator {
			joined, err := matchState.App.JoinLobby(ctx, matchState.Game, userID, meta.Name)
			if err != nil {
				logger.Error("MatchJoin: Failed to persist join for %s: %v", userID, err)
			} else if joined {
				logger.Debug("MatchJoin: Seated %s (%s) at seat %d.", meta.Name, userID, len(matchState.Game.Players)-1)
			}
		}

		if matchState.HostID == "" {
			if first := matchState.Game.FirstActive(); first != nil {
				matchState.HostID = first.ID
			} else {
				matchState.HostID = userID
			}
		}

		mh.sendHello(matchState, dispatcher, logger, p)
	}

	mh.broadcastPresence(matchState, dispatcher)
	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave drops sessions. Before the game starts a leaving player is also
// removed from the roster; once started, seats are frozen and only the
// session mapping goes away.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	rosterChanged := false
	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		delete(matchState.Sessions, userID)
		delete(matchState.pendingJoins, userID)

		removed, err := matchState.App.LeaveLobby(ctx, matchState.Game, userID)
		if err != nil {
			logger.Error("MatchLeave: Failed to persist leave for %s: %v", userID, err)
			continue
		}
		if !removed {
			continue
		}
		rosterChanged = true

		if matchState.HostID == userID {
			matchState.HostID = ""
			if first := matchState.Game.FirstActive(); first != nil {
				matchState.HostID = first.ID
			}
			logger.Debug("MatchLeave: Host left lobby, host is now %q.", matchState.HostID)
		}
	}

	if rosterChanged {
		mh.broadcastPresence(matchState, dispatcher)
		mh.updateLabel(matchState, dispatcher, logger)
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Room %s empty, terminating instance.", matchState.Room)
		return nil
	}

	return matchState
}

// MatchLoop processes the serialized inbound message stream for this room.
// Each accepted action runs mutation + persist + broadcast to completion
// before the next message is dispatched.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStart:
			mh.handleStart(ctx, matchState, dispatcher, logger, msg)
		case OpRoll:
			mh.handleHostAction(ctx, matchState, dispatcher, logger, msg, matchState.App.Roll)
		case OpBuy:
			mh.handleHostAction(ctx, matchState, dispatcher, logger, msg, matchState.App.Buy)
		case OpEndTurn:
			mh.handleHostAction(ctx, matchState, dispatcher, logger, msg, matchState.App.EndTurn)
		case OpChat:
			mh.handleChat(ctx, matchState, dispatcher, logger, msg)
		case OpBecomeHost:
			mh.handleBecomeHost(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	return matchState
}

func (mh *matchHandler) handleStart(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if senderID != state.HostID {
		logger.Debug("handleStart: %s is not host, ignoring.", senderID)
		return
	}

	err := state.App.Start(ctx, state.Game)
	switch {
	case errors.Is(err, app.ErrTooFewPlayers):
		mh.sendError(state, dispatcher, logger, senderID, "Need at least 2 players.")
		return
	case errors.Is(err, app.ErrAlreadyStarted):
		return
	case err != nil:
		logger.Error("handleStart: %v", err)
		return
	}

	logger.Info("handleStart: Room %s started with %d players.", state.Room, len(state.Game.Players))
	mh.broadcastState(state, dispatcher)
	mh.updateLabel(state, dispatcher, logger)
}

// handleHostAction gates roll/buy/end behind host authority, runs the
// use-case and broadcasts the resulting state. The host is the sole actuator
// of the current player's turn in this design.
func (mh *matchHandler) handleHostAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, action func(context.Context, *domain.GameState) error) {
	if msg.GetUserId() != state.HostID {
		return
	}
	if err := action(ctx, state.Game); err != nil {
		logger.Error("handleHostAction: op %d: %v", msg.GetOpCode(), err)
		return
	}
	mh.broadcastState(state, dispatcher)
}

func (mh *matchHandler) handleChat(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	meta, ok := state.Sessions[msg.GetUserId()]
	if !ok {
		return
	}

	var req chatRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Debug("handleChat: Dropping malformed payload from %s: %v", msg.GetUserId(), err)
		return
	}

	if err := state.App.Chat(ctx, state.Game, meta.Name, req.Text); err != nil {
		logger.Error("handleChat: %v", err)
		return
	}
	mh.broadcastState(state, dispatcher)
}

func (mh *matchHandler) handleBecomeHost(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if senderID == state.HostID {
		return
	}
	if state.hostHasSession() {
		logger.Debug("handleBecomeHost: Host %s still connected, ignoring takeover by %s.", state.HostID, senderID)
		return
	}

	state.HostID = senderID
	payload, _ := json.Marshal(hostMessage{HostID: state.HostID})
	_ = dispatcher.BroadcastMessage(OpHost, payload, nil, nil, true)
}

// sendHello greets one joining channel with its id, the host id and the full
// current game state.
func (mh *matchHandler) sendHello(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p runtime.Presence) {
	payload, err := json.Marshal(helloMessage{You: p.GetUserId(), HostID: state.HostID, State: state.Game})
	if err != nil {
		logger.Error("sendHello: %v", err)
		return
	}
	_ = dispatcher.BroadcastMessage(OpHello, payload, []runtime.Presence{p}, nil, true)
}

// sendError sends a targeted error reply to a single user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot reach %s: presence not found", userID)
		return
	}
	payload, _ := json.Marshal(errorMessage{M: message})
	_ = dispatcher.BroadcastMessage(OpError, payload, []runtime.Presence{presence}, nil, true)
}

// broadcastState fans the authoritative state out to every connected channel.
// Delivery is best-effort per channel; the platform drops sends to broken
// channels without affecting the rest.
func (mh *matchHandler) broadcastState(state *MatchState, dispatcher runtime.MatchDispatcher) {
	payload, err := json.Marshal(stateMessage{State: state.Game})
	if err != nil {
		return
	}
	_ = dispatcher.BroadcastMessage(OpState, payload, nil, nil, true)
}

func (mh *matchHandler) broadcastPresence(state *MatchState, dispatcher runtime.MatchDispatcher) {
	entries := make([]presenceEntry, 0, len(state.Game.Players))
	for _, p := range state.Game.Players {
		entries = append(entries, presenceEntry{ID: p.ID, Name: p.Name})
	}
	payload, err := json.Marshal(presenceMessage{Players: entries})
	if err != nil {
		return
	}
	_ = dispatcher.BroadcastMessage(OpPresence, payload, nil, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelBytes, err := json.Marshal(buildLabel(state))
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func buildLabel(state *MatchState) roomLabel {
	return roomLabel{
		Game:    gameName,
		Room:    state.Room,
		Open:    !state.Game.Started,
		Players: len(state.Game.Players),
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Room terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

// newDiceSeed derives the initial seed for a fresh room from wall-clock
// milliseconds, truncated to 32 bits like the original protocol.
func newDiceSeed() uint64 {
	return uint64(uint32(time.Now().UnixMilli()))
}

// guestName generates a default display name for identities that provide none.
func guestName() string {
	return "Guest-" + uuid.NewString()[:4]
}
