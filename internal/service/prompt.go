package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

func ticTacToePrompt(mark string, game *entity.Game) string {
	moves := make([]string, 0, 9)
	for _, move := range game.ValidMoves() {
		moves = append(moves, strconv.Itoa(move))
	}

	return fmt.Sprintf(`You are playing Tic-Tac-Toe as %s.
Cells are numbered 0 to 8, left to right and top to bottom.

Current board:
%s

Valid moves: [%s]

Respond with ONLY the number of the cell you want to play.`,
		mark, game.BoardState(), strings.Join(moves, ", "))
}

func splitOrStealPrompt(opponent string, history string) string {
	return fmt.Sprintf(`
You are playing the Split or Steal game with %s.
In this game, both players must choose either 'split' or 'steal'.
- If both players choose 'split', each gets 50 points
- If one chooses 'split' and other 'steal', the one who chose 'steal' gets 100 points, other gets 0
- If both choose 'steal', both get 0 points

%s

Make your decision: respond with ONLY the word 'split' or 'steal'.
Think strategically about maximizing your points while considering the opponent's likely behavior.
`, opponent, history)
}
