package domain

// TileKind classifies a board tile.
type TileKind string

const (
	TileGo        TileKind = "go"
	TileProp      TileKind = "prop"
	TileRail      TileKind = "rr"
	TileUtil      TileKind = "util"
	TileTax       TileKind = "tax"
	TileChest     TileKind = "chest"
	TileChance    TileKind = "chance"
	TileJailVisit TileKind = "jail_visit"
	TileFreePark  TileKind = "freepark"
	TileGoToJail  TileKind = "gotojail"
)

// Tile is a single board space. Cost and Rent apply to ownable kinds
// (prop, rr, util); Amount applies to tax tiles.
type Tile struct {
	ID     int
	Kind   TileKind
	Name   string
	Cost   int64
	Rent   int64
	Amount int64
}

// Ownable reports whether the tile can be bought and owned by a player.
func (t Tile) Ownable() bool {
	return t.Kind == TileProp || t.Kind == TileRail || t.Kind == TileUtil
}

// Board is the fixed 24-tile track. Tile IDs equal their index.
var Board = []Tile{
	{ID: 0, Kind: TileGo, Name: "GO"},
	{ID: 1, Kind: TileProp, Name: "Old Town", Cost: 60, Rent: 2},
	{ID: 2, Kind: TileChest, Name: "Chest"},
	{ID: 3, Kind: TileProp, Name: "Main Street", Cost: 60, Rent: 4},
	{ID: 4, Kind: TileTax, Name: "Income Tax", Amount: 200},
	{ID: 5, Kind: TileRail, Name: "North Station", Cost: 200, Rent: 25},
	{ID: 6, Kind: TileProp, Name: "Harbor Ave", Cost: 100, Rent: 6},
	{ID: 7, Kind: TileChance, Name: "Chance"},
	{ID: 8, Kind: TileProp, Name: "Park Lane", Cost: 100, Rent: 6},
	{ID: 9, Kind: TileProp, Name: "Market St", Cost: 120, Rent: 8},
	{ID: 10, Kind: TileJailVisit, Name: "Jail / Visit"},
	{ID: 11, Kind: TileProp, Name: "Maple Ave", Cost: 140, Rent: 10},
	{ID: 12, Kind: TileUtil, Name: "Power Co.", Cost: 150, Rent: 12},
	{ID: 13, Kind: TileProp, Name: "Oak Street", Cost: 140, Rent: 10},
	{ID: 14, Kind: TileProp, Name: "Birch Blvd", Cost: 160, Rent: 12},
	{ID: 15, Kind: TileRail, Name: "East Station", Cost: 200, Rent: 25},
	{ID: 16, Kind: TileProp, Name: "Seaside Rd", Cost: 180, Rent: 14},
	{ID: 17, Kind: TileChest, Name: "Chest"},
	{ID: 18, Kind: TileProp, Name: "Sunset Ave", Cost: 180, Rent: 14},
	{ID: 19, Kind: TileProp, Name: "Cedar Row", Cost: 200, Rent: 16},
	{ID: 20, Kind: TileFreePark, Name: "Free Parking"},
	{ID: 21, Kind: TileChance, Name: "Chance"},
	{ID: 22, Kind: TileProp, Name: "Hill View", Cost: 220, Rent: 18},
	{ID: 23, Kind: TileGoToJail, Name: "Go to Jail"},
}

// Colors is the seat color palette, assigned round-robin at join time.
var Colors = []string{"#ff7676", "#ffd166", "#6ee7b7", "#93c5fd", "#f5a8ff", "#fca5a5"}

// JailTile returns the jail_visit tile, or -1 if the board has none.
func JailTile() int {
	for _, t := range Board {
		if t.Kind == TileJailVisit {
			return t.ID
		}
	}
	return -1
}
