package damdto

// LegalMoves is the highlighting hint for the side to move. Moves is keyed
// by "row,col" of the origin.
type LegalMoves struct {
	Side        string              `json:"side"`
	MustCapture bool                `json:"mustCapture"`
	Pending     *[2]int             `json:"pending"`
	Selectable  [][2]int            `json:"selectable"`
	Moves       map[string][][2]int `json:"moves"`
}

// PlayerStats is the public profile row used by the leaderboard.
type PlayerStats struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	XP     int    `json:"xp"`
	Rating int    `json:"rating"`
}
