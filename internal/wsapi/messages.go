package wsapi

import "encoding/json"

// Client → server.
const (
	CmdLobbyHello = "lobby:hello"
	CmdCreate     = "room:create"
	CmdJoin       = "room:join"
	CmdLeave      = "room:leave"
	CmdBot        = "room:bot"
	CmdMove       = "game:move"
	CmdResign     = "game:resign"
	CmdRematch    = "game:rematch"
)

// Server → client.
const (
	EvMe          = "me"
	EvCreated     = "room:created"
	EvJoined      = "room:joined"
	EvLeft        = "room:left"
	EvList        = "room:list"
	EvError       = "room:error"
	EvState       = "game:state"
	EvYourMoves   = "game:yourMoves"
	EvOnline      = "online:count"
	EvLeaderboard = "leaderboard:top10"
	EvOver        = "game:over"
)

// Envelope is one frame in either direction.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type roomRef struct {
	ID string `json:"id"`
}

type joined struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type moveCmd struct {
	ID   string `json:"id"`
	From [2]int `json:"from"`
	To   [2]int `json:"to"`
}

type botCmd struct {
	Side string `json:"side"`
}

type errorBody struct {
	ID        string `json:"id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type overBody struct {
	ID     string `json:"id"`
	Winner string `json:"winner"`
	Reason string `json:"reason"`
	Text   string `json:"text"`
}
