package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// Client opcodes mirrored from the server module.
const (
	OpStart   = 1
	OpRoll    = 2
	OpBuy     = 3
	OpEndTurn = 4
	OpChat    = 5

	OpHello    = 101
	OpPresence = 102
	OpState    = 103
	OpHost     = 104
	OpError    = 105
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
}

func NewTestClient(t *testing.T) *TestClient {
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())

	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	return &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
	}
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// roomJoinResponse mirrors the room_join RPC response payload.
type roomJoinResponse struct {
	MatchID string `json:"match_id"`
	Room    string `json:"room"`
	IsNew   bool   `json:"is_new"`
}

// ResolveRoom calls the 'room_join' RPC and returns the resolved match id.
func (tc *TestClient) ResolveRoom(t *testing.T, room string) roomJoinResponse {
	payload := fmt.Sprintf(`{"room":%q}`, room)
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "room_join", payload)
	if err != nil {
		t.Fatalf("RPC room_join failed: %v", err)
	}

	var resp roomJoinResponse
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil {
		t.Fatalf("Failed to decode room_join response %q: %v", rpc.Payload, err)
	}
	if resp.MatchID == "" {
		t.Fatalf("RPC room_join returned no match id: %s", rpc.Payload)
	}
	return resp
}

// JoinRoom resolves the room and joins its match with the given display name.
func (tc *TestClient) JoinRoom(t *testing.T, room, name string) string {
	resp := tc.ResolveRoom(t, room)

	metadata := map[string]string{"name": name}
	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, metadata); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}

// SendOp sends one opcode with an optional JSON payload.
func (tc *TestClient) SendOp(t *testing.T, matchID string, opCode int64, payload []byte) {
	if _, err := tc.Socket.SendMatchState(context.Background(), matchID, opCode, payload, nil); err != nil {
		t.Fatalf("Failed to send op %d: %v", opCode, err)
	}
}

// WaitForMatchState waits for a specific opcode from the socket.
func (tc *TestClient) WaitForMatchState(t *testing.T, opCode int64, timeout time.Duration) *rtapi.MatchData {
	ch := make(chan *rtapi.MatchData)

	originalHandler := tc.Socket.OnMatchData
	tc.Socket.OnMatchData = func(data *rtapi.MatchData) {
		if data.OpCode == opCode {
			ch <- data
		}
		if originalHandler != nil {
			originalHandler(data)
		}
	}

	select {
	case data := <-ch:
		return data
	case <-time.After(timeout):
		t.Fatalf("Timeout waiting for OpCode %d", opCode)
		return nil
	}
}
