package entity

import "time"

const (
	KindTicTacToe    = "tictactoe"
	KindSplitOrSteal = "split-or-steal"
)

// Snapshot is a read-only copy of a running tournament handed to presentation.
type Snapshot struct {
	GameNumber int            `json:"game_number"`
	Games      int            `json:"games"`
	Game       Game           `json:"game"`
	Acting     *Player        `json:"acting,omitempty"`
	Scores     map[string]int `json:"scores"`
	Outcome    string         `json:"outcome,omitempty"`
	GameOver   bool           `json:"game_over"`
	Err        string         `json:"error,omitempty"`
}

// Result summarises a finished or stopped run.
type Result struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Players    []*Player      `json:"players"`
	Scores     map[string]int `json:"scores"`
	Winner     string         `json:"winner,omitempty"`
	Tie        bool           `json:"tie"`
	Planned    int            `json:"planned"`
	Played     int            `json:"played"`
	Rounds     History        `json:"rounds,omitempty"`
	Stats      *DecisionStats `json:"stats,omitempty"`
	Stopped    bool           `json:"stopped"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}
