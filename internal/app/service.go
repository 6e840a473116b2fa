package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"tycoon/internal/domain"
	"tycoon/internal/ports"
)

var (
	ErrAlreadyStarted = errors.New("game already started")
	ErrTooFewPlayers  = errors.New("not enough players to start")
)

// Service contains room use-cases operating on domain state. Every mutating
// use-case persists the state before returning, so a caller that broadcasts
// only on success never broadcasts state that was not durably written.
type Service struct {
	store  ports.RoomStore
	room   string
	logCap int
}

// NewService constructs a Service bound to one room's persistence key.
// logCap bounds the retained log window in persisted state.
func NewService(store ports.RoomStore, room string, logCap int) *Service {
	return &Service{store: store, room: room, logCap: logCap}
}

// LoadOrCreate returns the persisted state for the room, or a fresh lobby
// state seeded with the given dice seed when none exists. A fresh state is
// not persisted until the first roster change.
func (s *Service) LoadOrCreate(ctx context.Context, seed uint64) (*domain.GameState, error) {
	g, err := s.store.Load(ctx, s.room)
	if err != nil {
		return nil, fmt.Errorf("failed to load room %q: %w", s.room, err)
	}
	if g == nil {
		g = domain.NewGameState(seed)
	}
	return g, nil
}

// JoinLobby appends a new player to an unstarted roster and persists.
// Returns false without error when the id is already seated or the game has
// started (seats are frozen once turns are active).
func (s *Service) JoinLobby(ctx context.Context, g *domain.GameState, userID, name string) (bool, error) {
	if g.Started || g.PlayerByID(userID) != nil {
		return false, nil
	}
	g.AddPlayer(userID, name)
	if err := s.save(ctx, g); err != nil {
		g.RemovePlayer(userID)
		return false, err
	}
	return true, nil
}

// LeaveLobby removes a roster entry before the game starts and persists.
// Returns false without error when the id holds no seat.
func (s *Service) LeaveLobby(ctx context.Context, g *domain.GameState, userID string) (bool, error) {
	if g.Started || !g.RemovePlayer(userID) {
		return false, nil
	}
	if err := s.save(ctx, g); err != nil {
		return false, err
	}
	return true, nil
}

// Start freezes the roster and begins turn rotation.
func (s *Service) Start(ctx context.Context, g *domain.GameState) error {
	if g.Started {
		return ErrAlreadyStarted
	}
	if len(g.Players) < MinPlayersToStart {
		return ErrTooFewPlayers
	}
	g.Started = true
	g.Turn = 0
	g.AppendLog("Game started.")
	return s.save(ctx, g)
}

// Roll resolves a dice roll for the current player and persists. The rules
// engine handles its own no-op cases; the write happens unconditionally.
func (s *Service) Roll(ctx context.Context, g *domain.GameState) error {
	g.ApplyRoll()
	return s.save(ctx, g)
}

// Buy resolves the pending buy offer and persists.
func (s *Service) Buy(ctx context.Context, g *domain.GameState) error {
	g.ApplyBuy()
	return s.save(ctx, g)
}

// EndTurn advances the turn and persists.
func (s *Service) EndTurn(ctx context.Context, g *domain.GameState) error {
	g.ApplyEndTurn()
	return s.save(ctx, g)
}

// Chat appends a sanitized, bounded log line attributed to the sender's
// display name and persists.
func (s *Service) Chat(ctx context.Context, g *domain.GameState, from, text string) error {
	g.AppendLog(from + ": " + SanitizeChat(text))
	return s.save(ctx, g)
}

// SanitizeChat strips control characters and truncates to MaxChatLen runes.
func SanitizeChat(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	runes := []rune(cleaned)
	if len(runes) > MaxChatLen {
		runes = runes[:MaxChatLen]
	}
	return strings.TrimSpace(string(runes))
}

func (s *Service) save(ctx context.Context, g *domain.GameState) error {
	g.TrimLog(s.logCap)
	if err := s.store.Save(ctx, s.room, g); err != nil {
		return fmt.Errorf("failed to persist room %q: %w", s.room, err)
	}
	return nil
}
