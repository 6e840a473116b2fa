package domain

// Economy and lifecycle constants for the simplified ruleset.
const (
	// StartingCash is the balance every player joins the lobby with.
	StartingCash int64 = 1500
	// GoBonus is credited each time a player wraps past the GO tile.
	GoBonus int64 = 200
	// JailTermTurns is the remaining-turn counter set when a player is jailed.
	JailTermTurns = 3
	// SeedIncrement advances the dice seed before each roll.
	SeedIncrement uint64 = 7
)

// Player is one seated participant. Seat order is fixed at join time and the
// roster is frozen once the game has started.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Pos       int    `json:"pos"`
	Cash      int64  `json:"cash"`
	InJail    bool   `json:"inJail"`
	JailTurns int    `json:"jailTurns"`
	Bankrupt  bool   `json:"bankrupt"`
	Color     string `json:"color"`
}

// Ownership records who holds a tile. Absent map entry means unowned.
type Ownership struct {
	OwnerID   string `json:"ownerId"`
	Mortgaged bool   `json:"mortgaged"`
}

// PendingOffer is the single outstanding decision slot. Currently only buy
// offers exist; it is cleared by the next accepted buy or end action.
type PendingOffer struct {
	Kind   string `json:"kind"`
	TileID int    `json:"tileId"`
	Cost   int64  `json:"cost"`
	To     string `json:"to"`
}

// PendingKindBuy is the only pending offer kind in the simplified ruleset.
const PendingKindBuy = "buy"

// GameState is the single authoritative state for one room. Field names match
// the persisted blob and the wire payloads one to one.
type GameState struct {
	Seed     uint64             `json:"seed"`
	Started  bool               `json:"started"`
	Turn     int                `json:"turn"`
	Players  []*Player          `json:"players"`
	Props    map[int]*Ownership `json:"props"`
	Pending  *PendingOffer      `json:"pending,omitempty"`
	LastRoll []int              `json:"lastRoll"`
	Log      []string           `json:"log"`
}

// NewGameState creates a fresh lobby state with the given dice seed.
func NewGameState(seed uint64) *GameState {
	return &GameState{
		Seed:    seed,
		Players: []*Player{},
		Props:   map[int]*Ownership{},
		Log:     []string{"Room created."},
	}
}

// AddPlayer appends a player at the next free seat with starting cash and a
// round-robin palette color. The caller is responsible for checking Started.
func (g *GameState) AddPlayer(id, name string) *Player {
	p := &Player{
		ID:    id,
		Name:  name,
		Seat:  len(g.Players),
		Cash:  StartingCash,
		Color: Colors[len(g.Players)%len(Colors)],
	}
	g.Players = append(g.Players, p)
	return p
}

// RemovePlayer removes the roster entry with the given id, preserving seat
// order of the remaining players. Returns false when the id is not seated.
func (g *GameState) RemovePlayer(id string) bool {
	for i, p := range g.Players {
		if p.ID == id {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return true
		}
	}
	return false
}

// PlayerByID returns the seated player with the given id, or nil.
func (g *GameState) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose action is currently valid, indexed
// by turn mod roster size. Returns nil when the roster is empty or every
// player is bankrupt.
func (g *GameState) CurrentPlayer() *Player {
	alive := 0
	for _, p := range g.Players {
		if !p.Bankrupt {
			alive++
		}
	}
	if alive == 0 {
		return nil
	}
	return g.Players[g.Turn%len(g.Players)]
}

// FirstActive returns the first non-bankrupt player in seat order, or nil.
// Host designation is recomputed from this on every actor instance.
func (g *GameState) FirstActive() *Player {
	for _, p := range g.Players {
		if !p.Bankrupt {
			return p
		}
	}
	return nil
}

// AppendLog appends one event line to the room log.
func (g *GameState) AppendLog(line string) {
	g.Log = append(g.Log, line)
}

// TrimLog drops the oldest log lines so at most max remain. The persisted
// log is bounded; display clients only ever need the retained window.
func (g *GameState) TrimLog(max int) {
	if max <= 0 || len(g.Log) <= max {
		return
	}
	g.Log = append(g.Log[:0:0], g.Log[len(g.Log)-max:]...)
}
