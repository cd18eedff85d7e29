package damdto

import "time"

// Piece is one occupied cell; empty cells are nil in SessionState.Board.
type Piece struct {
	Side string `json:"side"`
	King bool   `json:"king"`
}

type Seat struct {
	Identity string `json:"identity,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

type LastMove struct {
	From    [2]int `json:"from"`
	To      [2]int `json:"to"`
	Capture bool   `json:"capture"`
	By      string `json:"by"`
}

type SessionState struct {
	ID         string       `json:"id"`
	Board      [8][8]*Piece `json:"board"`
	Turn       string       `json:"turn"`
	Status     string       `json:"status"`
	Winner     string       `json:"winner,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	LastMove   *LastMove    `json:"lastMove,omitempty"`
	White      Seat         `json:"white"`
	Black      Seat         `json:"black"`
	Spectators []string     `json:"spectators"`
	MoveCount  int          `json:"moveCount"`
	Pending    *[2]int      `json:"pending,omitempty"`
	Games      int          `json:"games"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// RoomSummary is one lobby list entry.
type RoomSummary struct {
	ID         string `json:"id"`
	White      string `json:"white,omitempty"`
	Black      string `json:"black,omitempty"`
	Spectators int    `json:"spectators"`
	Status     string `json:"status"`
	Bot        bool   `json:"bot,omitempty"`
}
