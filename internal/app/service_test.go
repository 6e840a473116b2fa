package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tycoon/internal/domain"
)

// memStore is an in-memory RoomStore keeping states as JSON blobs, so the
// persisted copy is fully decoupled from the in-memory one.
type memStore struct {
	blobs   map[string][]byte
	saves   int
	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Load(_ context.Context, room string) (*domain.GameState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	raw, ok := m.blobs[room]
	if !ok {
		return nil, nil
	}
	var g domain.GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *memStore) Save(_ context.Context, room string, g *domain.GameState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	m.blobs[room] = raw
	m.saves++
	return nil
}

// persistedEquals checks the stored blob for the room matches the in-memory
// state byte for byte.
func persistedEquals(t *testing.T, m *memStore, room string, g *domain.GameState) {
	t.Helper()
	want, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := m.blobs[room]; string(got) != string(want) {
		t.Fatalf("persisted state diverged:\n got %s\nwant %s", got, want)
	}
}

func TestLoadOrCreate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "alpha", 200)

	g, err := svc.LoadOrCreate(context.Background(), 42)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if g.Seed != 42 {
		t.Fatalf("seed = %d, want 42", g.Seed)
	}
	if store.saves != 0 {
		t.Fatal("fresh state must not be persisted until the first roster change")
	}

	// Persist a roster, then reload through a second service instance.
	if _, err := svc.JoinLobby(context.Background(), g, "u1", "Alice"); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	g2, err := NewService(store, "alpha", 200).LoadOrCreate(context.Background(), 999)
	if err != nil {
		t.Fatalf("LoadOrCreate reload: %v", err)
	}
	if g2.Seed != 42 || len(g2.Players) != 1 || g2.Players[0].Name != "Alice" {
		t.Fatalf("reloaded state = %+v", g2)
	}
}

func TestLoadOrCreateStoreError(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("backend down")
	svc := NewService(store, "alpha", 200)

	if _, err := svc.LoadOrCreate(context.Background(), 1); err == nil {
		t.Fatal("expected load error to propagate")
	}
}

func TestJoinLobby(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "alpha", 200)
	g := domain.NewGameState(1)

	ok, err := svc.JoinLobby(context.Background(), g, "u1", "Alice")
	if err != nil || !ok {
		t.Fatalf("JoinLobby = %v, %v", ok, err)
	}
	persistedEquals(t, store, "alpha", g)

	// duplicate join holds the existing seat
	ok, err = svc.JoinLobby(context.Background(), g, "u1", "Alice Again")
	if err != nil || ok {
		t.Fatalf("duplicate JoinLobby = %v, %v", ok, err)
	}
	if len(g.Players) != 1 || g.Players[0].Name != "Alice" {
		t.Fatalf("roster = %+v", g.Players)
	}

	g.Started = true
	ok, err = svc.JoinLobby(context.Background(), g, "u2", "Bob")
	if err != nil || ok {
		t.Fatalf("post-start JoinLobby = %v, %v", ok, err)
	}
}

func TestLeaveLobby(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "alpha", 200)
	g := domain.NewGameState(1)
	g.AddPlayer("u1", "Alice")
	g.AddPlayer("u2", "Bob")

	ok, err := svc.LeaveLobby(context.Background(), g, "u1")
	if err != nil || !ok {
		t.Fatalf("LeaveLobby = %v, %v", ok, err)
	}
	if len(g.Players) != 1 || g.Players[0].ID != "u2" {
		t.Fatalf("roster = %+v", g.Players)
	}
	persistedEquals(t, store, "alpha", g)

	ok, err = svc.LeaveLobby(context.Background(), g, "ghost")
	if err != nil || ok {
		t.Fatalf("unseated LeaveLobby = %v, %v", ok, err)
	}

	g.Started = true
	ok, err = svc.LeaveLobby(context.Background(), g, "u2")
	if err != nil || ok {
		t.Fatalf("post-start LeaveLobby = %v, %v", ok, err)
	}
	if len(g.Players) != 1 {
		t.Fatal("started roster must be frozen")
	}
}

func TestStart(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "alpha", 200)
	g := domain.NewGameState(1)
	g.AddPlayer("u1", "Alice")

	if err := svc.Start(context.Background(), g); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("single-player Start = %v, want ErrTooFewPlayers", err)
	}
	if g.Started {
		t.Fatal("failed start must not flip Started")
	}

	g.AddPlayer("u2", "Bob")
	if err := svc.Start(context.Background(), g); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !g.Started || g.Turn != 0 {
		t.Fatalf("state after start: started=%v turn=%d", g.Started, g.Turn)
	}
	persistedEquals(t, store, "alpha", g)

	if err := svc.Start(context.Background(), g); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestMutationsPersistBeforeReturn(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "alpha", 200)
	g := domain.NewGameState(5)
	g.AddPlayer("u1", "Alice")
	g.AddPlayer("u2", "Bob")
	g.Started = true

	steps := []struct {
		name string
		op   func() error
	}{
		{"Roll", func() error { return svc.Roll(context.Background(), g) }},
		{"Buy", func() error { return svc.Buy(context.Background(), g) }},
		{"EndTurn", func() error { return svc.EndTurn(context.Background(), g) }},
		{"Chat", func() error { return svc.Chat(context.Background(), g, "Alice", "hello") }},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if err := step.op(); err != nil {
				t.Fatalf("%s: %v", step.name, err)
			}
			persistedEquals(t, store, "alpha", g)
		})
	}
}

func TestSaveFailurePropagates(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	svc := NewService(store, "alpha", 200)
	g := domain.NewGameState(1)
	g.AddPlayer("u1", "Alice")
	g.AddPlayer("u2", "Bob")
	g.Started = true

	err := svc.Roll(context.Background(), g)
	if err == nil {
		t.Fatal("expected save error to propagate")
	}
	if !strings.Contains(err.Error(), "alpha") {
		t.Fatalf("error %q must name the room", err)
	}
}

func TestJoinLobbySaveFailureRollsBack(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	svc := NewService(store, "alpha", 200)
	g := domain.NewGameState(1)

	ok, err := svc.JoinLobby(context.Background(), g, "u1", "Alice")
	if err == nil || ok {
		t.Fatalf("JoinLobby = %v, %v, want failure", ok, err)
	}
	if len(g.Players) != 0 {
		t.Fatal("failed join must not leave the player seated in memory")
	}
}

func TestChatSanitizesAndTrims(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "alpha", 3)
	g := domain.NewGameState(1)

	if err := svc.Chat(context.Background(), g, "Alice", "hi\x00there\n"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if last := g.Log[len(g.Log)-1]; last != "Alice: hithere" {
		t.Fatalf("log line = %q", last)
	}

	// log window bounded by the service's cap
	for i := 0; i < 5; i++ {
		if err := svc.Chat(context.Background(), g, "Alice", "spam"); err != nil {
			t.Fatalf("Chat: %v", err)
		}
	}
	if len(g.Log) != 3 {
		t.Fatalf("log length = %d, want cap 3", len(g.Log))
	}
}

func TestSanitizeChat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "hello", "hello"},
		{"ControlChars", "a\x00b\tc\nd", "abcd"},
		{"Whitespace", "  padded  ", "padded"},
		{"Truncated", strings.Repeat("x", MaxChatLen+50), strings.Repeat("x", MaxChatLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeChat(tt.in); got != tt.want {
				t.Fatalf("SanitizeChat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
