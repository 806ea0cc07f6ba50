package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

const sessionRule = 50

// PrintTournament writes tournament progress until updates is closed.
func PrintTournament(out io.Writer, playerX, playerO *entity.Player, games int, updates <-chan entity.Snapshot) {
	fmt.Fprintf(out, "Starting %d Tic Tac Toe games between %s (X) and %s (O)\n", games, playerX.Model, playerO.Model)

	current, reported := 0, 0
	for snapshot := range updates {
		if snapshot.GameNumber != current {
			current, reported = snapshot.GameNumber, 0
			fmt.Fprintf(out, "\nGame %d/%d\n", snapshot.GameNumber, snapshot.Games)
		}

		// every accepted move shows up in the snapshot that follows it
		game := snapshot.Game
		if filled := len(game.Board) - len(game.ValidMoves()); filled > reported && game.LastMove >= 0 {
			reported = filled
			fmt.Fprintf(out, "%s plays %d\n", game.Board[game.LastMove], game.LastMove)
		}

		switch {
		case snapshot.Err != "":
			fmt.Fprintf(out, "Game aborted: %s\n", snapshot.Err)
		case snapshot.GameOver:
			fmt.Fprintln(out, game.BoardState())
			fmt.Fprintln(out, outcomeLine(snapshot.Outcome, playerX, playerO))
		}
	}
}

// PrintTournamentResult writes the final scoreboard of a tournament.
func PrintTournamentResult(out io.Writer, result *entity.Result) {
	playerX, playerO := result.Players[0], result.Players[1]

	if result.Stopped {
		fmt.Fprintf(out, "\nStopped after %d of %d games.\n", result.Played, result.Planned)
	}

	fmt.Fprintf(out, "\nFinal scores after %d games:\n", result.Played)
	fmt.Fprintf(out, "%s (X): %d wins\n", playerX.Model, result.Scores[entity.PlayerX])
	fmt.Fprintf(out, "%s (O): %d wins\n", playerO.Model, result.Scores[entity.PlayerO])
	fmt.Fprintf(out, "Draws: %d\n", result.Scores[entity.ResultDraw])
	fmt.Fprintln(out, winnerLine(result))
}

// PrintSession writes every round until updates is closed.
func PrintSession(out io.Writer, playerA, playerB *entity.Player, updates <-chan entity.RoundRecord) {
	fmt.Fprintf(out, "Starting Split or Steal game between %s and %s\n", playerA.Name, playerB.Name)
	fmt.Fprintln(out, strings.Repeat("-", sessionRule))

	for record := range updates {
		fmt.Fprintf(out, "\nRound %d:\n", record.Round)
		fmt.Fprintf(out, "%s chose: %s\n", playerA.Name, record.DecisionA)
		fmt.Fprintf(out, "%s chose: %s\n", playerB.Name, record.DecisionB)
		fmt.Fprintf(out, "Round result: %s\n", record.Result)
		fmt.Fprintf(out, "Current totals - %s: %d, %s: %d\n", playerA.Name, record.TotalA, playerB.Name, record.TotalB)
	}
}

// PrintSessionResult writes final points, the decision mix and the winner.
func PrintSessionResult(out io.Writer, result *entity.Result) {
	playerA, playerB := result.Players[0], result.Players[1]

	fmt.Fprintln(out, "\nGame Over!")
	if result.Stopped {
		fmt.Fprintf(out, "Stopped after %d of %d rounds.\n", result.Played, result.Planned)
	}

	fmt.Fprintln(out, "Final scores:")
	fmt.Fprintf(out, "%s: %d points\n", playerA.Name, result.Scores[playerA.Name])
	fmt.Fprintf(out, "%s: %d points\n", playerB.Name, result.Scores[playerB.Name])

	if stats := result.Stats; stats != nil {
		fmt.Fprintf(out, "%s: %d splits, %d steals\n", playerA.Name, stats.SplitsA, stats.StealsA)
		fmt.Fprintf(out, "%s: %d splits, %d steals\n", playerB.Name, stats.SplitsB, stats.StealsB)
	}

	fmt.Fprintln(out, winnerLine(result))
}

func outcomeLine(outcome string, playerX, playerO *entity.Player) string {
	switch outcome {
	case entity.PlayerX:
		return fmt.Sprintf("Winner: %s (X)", playerX.Model)
	case entity.PlayerO:
		return fmt.Sprintf("Winner: %s (O)", playerO.Model)
	default:
		return "Draw"
	}
}

func winnerLine(result *entity.Result) string {
	if result.Tie {
		return "It's a tie!"
	}

	return fmt.Sprintf("%s wins!", result.Winner)
}
