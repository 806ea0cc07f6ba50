package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	PlayerX    = "X"
	PlayerO    = "O"
	ResultDraw = "Draw"

	EmptyCell = ""
)

const (
	boardSize    = 9
	rowSeparator = "\n---------\n"
	cellDivider  = "|"
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Game is a single Tic-Tac-Toe board. X always moves first.
type Game struct {
	Board    [boardSize]string `json:"board"`
	Turn     string            `json:"turn"`
	Winner   string            `json:"winner"`
	Status   string            `json:"status"`
	LastMove int               `json:"last_move"`
}

func NewGame() *Game {
	return &Game{
		Turn:     PlayerX,
		Status:   StatusOngoing,
		LastMove: -1,
	}
}

// MakeMove places the current marker on cell and passes the turn.
// A rejected move leaves the game untouched.
func (that *Game) MakeMove(cell int) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Turn != PlayerX && that.Turn != PlayerO {
		return apperror.ErrGameNotStarted
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that.Board[cell] = that.Turn
	that.LastMove = cell
	that.Turn = toggleMark(that.Turn)

	that.updateGameState()

	return nil
}

// CheckWinner returns the winning marker, ResultDraw for a full board, or "" while the game goes on.
func (that *Game) CheckWinner() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return ResultDraw
}

// WinningLine returns the completed combo or nil.
func (that *Game) WinningLine() []int {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return []int{combo[0], combo[1], combo[2]}
		}
	}

	return nil
}

func (that *Game) ValidMoves() []int {
	moves := make([]int, 0, len(that.Board))
	for i, cell := range that.Board {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

// BoardState renders the board the way it is shown to the models:
//
//	X|O|
//	---------
//	 |X|
//	---------
//	 | |O
func (that *Game) BoardState() string {
	rows := make([]string, 0, 3)
	for i := 0; i < boardSize; i += 3 {
		cells := make([]string, 0, 3)
		for _, cell := range that.Board[i : i+3] {
			if cell == EmptyCell {
				cell = " "
			}
			cells = append(cells, cell)
		}
		rows = append(rows, strings.Join(cells, cellDivider))
	}

	return strings.Join(rows, rowSeparator)
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

// Forfeit ends the game in favour of the opponent of loser.
func (that *Game) Forfeit(loser string) {
	that.Winner = toggleMark(loser)
	that.Status = StatusFinished
	that.Turn = ""
}

func (that *Game) Clone() *Game {
	clone := *that
	return &clone
}

func (that *Game) updateGameState() {
	switch winner := that.CheckWinner(); winner {
	// one player wins
	case PlayerX, PlayerO:
		that.Winner = winner
		that.Status = StatusFinished
		that.Turn = ""
	// draw
	case ResultDraw:
		that.Winner = ResultDraw
		that.Status = StatusFinished
		that.Turn = ""
	// game continue
	default:
		that.Status = StatusOngoing
	}
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
