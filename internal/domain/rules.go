package domain

import "fmt"

// RollDice derives two die values (1..6) from the seed. The formula is a
// fixed linear-congruential mix so a persisted seed replays identically;
// do not substitute a platform random source.
func RollDice(seed uint64) (int, int) {
	d1 := 1 + int(((seed*9301+49297)%233280)%6)
	d2 := 1 + int(((seed*233280+9301)%49297)%6)
	return d1, d2
}

// ApplyRoll advances the dice seed, moves the current player and resolves the
// landed tile. No-op when no current non-bankrupt player exists.
func (g *GameState) ApplyRoll() {
	cur := g.CurrentPlayer()
	if cur == nil {
		return
	}

	g.Seed += SeedIncrement
	d1, d2 := RollDice(g.Seed)
	g.LastRoll = []int{d1, d2}

	prev := cur.Pos
	cur.Pos = (cur.Pos + d1 + d2) % len(Board)
	if cur.Pos < prev {
		cur.Cash += GoBonus
		g.AppendLog(fmt.Sprintf("%s passed GO +$%d", cur.Name, GoBonus))
	}

	tile := Board[cur.Pos]
	switch {
	case tile.Ownable():
		owned := g.Props[tile.ID]
		if owned == nil {
			g.Pending = &PendingOffer{Kind: PendingKindBuy, TileID: tile.ID, Cost: tile.Cost, To: cur.ID}
			g.AppendLog(fmt.Sprintf("%s landed on %s. Can buy for $%d.", cur.Name, tile.Name, tile.Cost))
		} else if owned.OwnerID != cur.ID && !owned.Mortgaged {
			g.pay(cur, owned.OwnerID, tile.Rent, "Rent for "+tile.Name)
		}
	case tile.Kind == TileTax:
		g.payBank(cur, tile.Amount, tile.Name)
	case tile.Kind == TileGoToJail:
		if jail := JailTile(); jail >= 0 {
			cur.Pos = jail
			cur.InJail = true
			cur.JailTurns = JailTermTurns
		}
		g.AppendLog(fmt.Sprintf("%s goes to Jail.", cur.Name))
	}
	// start, chest, chance, free parking and jail-visit tiles are inert.
}

// ApplyBuy resolves the pending buy offer for the current player. The offer
// is cleared whether or not the player can afford the tile.
func (g *GameState) ApplyBuy() {
	cur := g.CurrentPlayer()
	if cur == nil || g.Pending == nil || g.Pending.Kind != PendingKindBuy || g.Pending.To != cur.ID {
		return
	}

	tile := Board[g.Pending.TileID]
	if cur.Cash >= tile.Cost {
		cur.Cash -= tile.Cost
		g.Props[tile.ID] = &Ownership{OwnerID: cur.ID}
		g.AppendLog(fmt.Sprintf("%s bought %s for $%d.", cur.Name, tile.Name, tile.Cost))
	} else {
		g.AppendLog(fmt.Sprintf("%s cannot afford %s.", cur.Name, tile.Name))
	}
	g.Pending = nil
}

// ApplyEndTurn clears any pending offer and advances the turn to the next
// non-bankrupt player. No-op (beyond clearing the offer) when every player
// is bankrupt.
func (g *GameState) ApplyEndTurn() {
	g.Pending = nil
	g.nextTurn()
	if nxt := g.CurrentPlayer(); nxt != nil {
		g.AppendLog(fmt.Sprintf("Turn → %s", nxt.Name))
	}
}

// nextTurn scans forward at most one full lap for a non-bankrupt player.
// Leaves Turn unchanged when none exists.
func (g *GameState) nextTurn() {
	n := len(g.Players)
	if n == 0 {
		return
	}
	i := g.Turn + 1
	for k := 0; k < n; k++ {
		if !g.Players[i%n].Bankrupt {
			g.Turn = i % n
			return
		}
		i++
	}
}

// pay transfers amt from a player to the owner with the given id. The debit
// is applied even when it drives the payer negative; the deficit triggers
// bankruptcy in the same transition.
func (g *GameState) pay(from *Player, toID string, amt int64, why string) {
	from.Cash -= amt
	to := g.PlayerByID(toID)
	toName := "Bank"
	if to != nil {
		to.Cash += amt
		toName = to.Name
	}
	g.AppendLog(fmt.Sprintf("%s pays $%d to %s (%s).", from.Name, amt, toName, why))
	if from.Cash < 0 {
		g.bankrupt(from)
	}
}

// payBank debits amt with no receiving player.
func (g *GameState) payBank(from *Player, amt int64, why string) {
	from.Cash -= amt
	g.AppendLog(fmt.Sprintf("%s pays $%d to Bank (%s).", from.Name, amt, why))
	if from.Cash < 0 {
		g.bankrupt(from)
	}
}

// bankrupt marks the player bankrupt (one-way) and releases every tile they
// own back to unowned, atomically with the payment that caused the deficit.
func (g *GameState) bankrupt(p *Player) {
	g.AppendLog(fmt.Sprintf("%s is bankrupt!", p.Name))
	p.Bankrupt = true
	for id, o := range g.Props {
		if o.OwnerID == p.ID {
			delete(g.Props, id)
		}
	}
}
