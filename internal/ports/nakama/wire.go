package nakama

import "tycoon/internal/domain"

// Wire payloads. All messages are JSON; the op code is the message tag.
// Field names match the original client protocol.

type chatRequest struct {
	Text string `json:"text"`
}

type helloMessage struct {
	You    string            `json:"you"`
	HostID string            `json:"hostId"`
	State  *domain.GameState `json:"state"`
}

type presenceEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type presenceMessage struct {
	Players []presenceEntry `json:"players"`
}

type stateMessage struct {
	State *domain.GameState `json:"state"`
}

type hostMessage struct {
	HostID string `json:"hostId"`
}

type errorMessage struct {
	M string `json:"m"`
}

// roomLabel is the match label advertised for directory queries.
type roomLabel struct {
	Game    string `json:"game"`
	Room    string `json:"room"`
	Open    bool   `json:"open"`
	Players int    `json:"players"`
}
