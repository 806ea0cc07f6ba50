package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
	"github.com/rocketscienceinc/llm-arena/internal/repository"
)

var errOllamaDown = errors.New("ollama down")

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// scriptedMoves plays the first free cell from a per-mark preference list.
type scriptedMoves struct {
	mu    sync.Mutex
	calls int

	prefs  map[string][]int
	errFor map[string]error
	hook   func(call int)
}

func (that *scriptedMoves) RequestMove(_ context.Context, player *entity.Player, game *entity.Game) (int, error) {
	that.mu.Lock()
	that.calls++
	call := that.calls
	that.mu.Unlock()

	if that.hook != nil {
		that.hook(call)
	}

	if err, ok := that.errFor[player.Mark]; ok {
		return 0, err
	}

	valid := game.ValidMoves()
	for _, cell := range that.prefs[player.Mark] {
		if slices.Contains(valid, cell) {
			return cell, nil
		}
	}

	return valid[0], nil
}

func xWinsMoves() *scriptedMoves {
	return &scriptedMoves{
		prefs: map[string][]int{
			entity.PlayerX: {0, 1, 2},
			entity.PlayerO: {3, 4},
		},
	}
}

func drain(updates <-chan entity.Snapshot) func() []entity.Snapshot {
	var (
		wg        sync.WaitGroup
		snapshots []entity.Snapshot
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for snapshot := range updates {
			snapshots = append(snapshots, snapshot)
		}
	}()

	return func() []entity.Snapshot {
		wg.Wait()
		return snapshots
	}
}

func newTournament(t *testing.T, moves moveService, results resultRepo, games int) *Tournament {
	t.Helper()

	tournament, err := NewTournament(newLogger(), moves, results, TournamentConfig{
		PlayerX: entity.NewPlayer("Small", "llama3.2:1b", ""),
		PlayerO: entity.NewPlayer("Large", "llama3.2:3b", ""),
		Games:   games,
	})
	require.NoError(t, err)

	return tournament
}

func TestNewTournament(t *testing.T) {
	t.Run("Rejects a non-positive game count", func(t *testing.T) {
		_, err := NewTournament(newLogger(), xWinsMoves(), nil, TournamentConfig{
			PlayerX: entity.NewPlayer("", "a", ""),
			PlayerO: entity.NewPlayer("", "b", ""),
			Games:   0,
		})

		require.ErrorIs(t, err, ErrInvalidCount)
	})

	t.Run("Rejects a shared player", func(t *testing.T) {
		player := entity.NewPlayer("", "a", "")

		_, err := NewTournament(newLogger(), xWinsMoves(), nil, TournamentConfig{
			PlayerX: player,
			PlayerO: player,
			Games:   1,
		})

		require.ErrorIs(t, err, ErrSamePlayer)
	})

	t.Run("Assigns marks", func(t *testing.T) {
		conf := TournamentConfig{
			PlayerX: entity.NewPlayer("", "a", ""),
			PlayerO: entity.NewPlayer("", "b", ""),
			Games:   1,
		}

		_, err := NewTournament(newLogger(), xWinsMoves(), nil, conf)

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, conf.PlayerX.Mark)
		assert.Equal(t, entity.PlayerO, conf.PlayerO.Mark)
	})
}

func TestTournament_Run(t *testing.T) {
	t.Run("X wins every game", func(t *testing.T) {
		// Given: X always completes the top row before O completes the middle one
		results := repository.NewMemoryResultRepository()
		tournament := newTournament(t, xWinsMoves(), results, 3)

		updates := make(chan entity.Snapshot)
		collect := drain(updates)

		// When: the tournament runs
		result, err := tournament.Run(context.Background(), updates)
		snapshots := collect()

		// Then: every game is counted for X and the result is stored
		require.NoError(t, err)
		assert.Equal(t, map[string]int{entity.PlayerX: 3, entity.PlayerO: 0, entity.ResultDraw: 0}, result.Scores)
		assert.Equal(t, "Small", result.Winner)
		assert.False(t, result.Tie)
		assert.False(t, result.Stopped)
		assert.Equal(t, 3, result.Played)
		assert.Equal(t, entity.KindTicTacToe, result.Kind)

		stored, err := results.GetByID(context.Background(), result.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Scores, stored.Scores)

		// five moves plus a game over snapshot per game
		require.Len(t, snapshots, 18)

		first := snapshots[0]
		assert.Equal(t, 1, first.GameNumber)
		assert.Equal(t, 3, first.Games)
		require.NotNil(t, first.Acting)
		assert.Equal(t, entity.PlayerX, first.Acting.Mark)
		assert.Equal(t, entity.NewGame().Board, first.Game.Board)

		gameOver := snapshots[5]
		assert.True(t, gameOver.GameOver)
		assert.Equal(t, entity.PlayerX, gameOver.Outcome)
		assert.Equal(t, []int{0, 1, 2}, gameOver.Game.WinningLine())
		assert.Equal(t, 1, gameOver.Scores[entity.PlayerX])

		last := snapshots[len(snapshots)-1]
		assert.Equal(t, 3, last.GameNumber)
		assert.Equal(t, 3, last.Scores[entity.PlayerX])
	})

	t.Run("Scores always add up to the number of games played", func(t *testing.T) {
		// Given: both sides take the lowest free cell, so X wins on the diagonal
		moves := &scriptedMoves{}
		tournament := newTournament(t, moves, nil, 4)

		// When: the tournament runs without a listener
		result, err := tournament.Run(context.Background(), nil)

		// Then: wins and draws sum to the games played
		require.NoError(t, err)
		total := result.Scores[entity.PlayerX] + result.Scores[entity.PlayerO] + result.Scores[entity.ResultDraw]
		assert.Equal(t, 4, total)
		assert.Equal(t, 4, result.Played)
	})

	t.Run("A full board without a line counts only as a draw", func(t *testing.T) {
		// Given: both sides fill the board without completing a line
		moves := &scriptedMoves{
			prefs: map[string][]int{
				entity.PlayerX: {0, 2, 3, 7, 8},
				entity.PlayerO: {1, 4, 5, 6},
			},
		}
		tournament := newTournament(t, moves, nil, 3)

		// When: the tournament runs
		result, err := tournament.Run(context.Background(), nil)

		// Then: only the draw counter moves and nobody wins
		require.NoError(t, err)
		assert.Equal(t, map[string]int{entity.PlayerX: 0, entity.PlayerO: 0, entity.ResultDraw: 3}, result.Scores)
		assert.True(t, result.Tie)
		assert.Empty(t, result.Winner)
		assert.Equal(t, 3, result.Played)
	})

	t.Run("Exhausted attempts forfeit the game", func(t *testing.T) {
		// Given: O never produces a usable move
		moves := xWinsMoves()
		moves.errFor = map[string]error{
			entity.PlayerO: fmt.Errorf("%w: llama3.2:3b after 5 attempts", apperror.ErrMoveAttemptsExhausted),
		}
		tournament := newTournament(t, moves, nil, 2)

		// When: the tournament runs
		result, err := tournament.Run(context.Background(), nil)

		// Then: X is credited with every game
		require.NoError(t, err)
		assert.Equal(t, 2, result.Scores[entity.PlayerX])
		assert.Equal(t, 0, result.Scores[entity.PlayerO])
		assert.Equal(t, "Small", result.Winner)
	})

	t.Run("Forfeit log line carries the run id", func(t *testing.T) {
		// Given: O never produces a usable move and logs are captured
		moves := xWinsMoves()
		moves.errFor = map[string]error{
			entity.PlayerO: fmt.Errorf("%w: llama3.2:3b after 5 attempts", apperror.ErrMoveAttemptsExhausted),
		}

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		tournament, err := NewTournament(logger, moves, nil, TournamentConfig{
			PlayerX: entity.NewPlayer("Small", "llama3.2:1b", ""),
			PlayerO: entity.NewPlayer("Large", "llama3.2:3b", ""),
			Games:   1,
		})
		require.NoError(t, err)

		// When: the tournament runs
		result, err := tournament.Run(context.Background(), nil)
		require.NoError(t, err)

		// Then: the forfeit warning is tagged with the result id
		var forfeit map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			if entry["msg"] == "player forfeits the game" {
				forfeit = entry
			}
		}

		require.NotNil(t, forfeit)
		assert.Equal(t, result.ID, forfeit["id"])
	})

	t.Run("Unexpected move errors abort the run", func(t *testing.T) {
		// Given: X's requests fail with an unexpected error
		moves := xWinsMoves()
		moves.errFor = map[string]error{entity.PlayerX: errOllamaDown}
		results := repository.NewMemoryResultRepository()
		tournament := newTournament(t, moves, results, 5)

		updates := make(chan entity.Snapshot)
		collect := drain(updates)

		// When: the tournament runs
		result, err := tournament.Run(context.Background(), updates)
		snapshots := collect()

		// Then: the error is reported and the partial result is still stored
		require.ErrorIs(t, err, errOllamaDown)
		assert.Equal(t, 0, result.Played)
		assert.True(t, result.Tie)

		require.NotEmpty(t, snapshots)
		assert.Contains(t, snapshots[len(snapshots)-1].Err, errOllamaDown.Error())

		_, err = results.GetByID(context.Background(), result.ID)
		require.NoError(t, err)
	})

	t.Run("Cancellation stops the run and keeps the partial result", func(t *testing.T) {
		// Given: the run is cancelled during the second game
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		moves := xWinsMoves()
		moves.hook = func(call int) {
			if call == 7 {
				cancel()
			}
		}
		results := repository.NewMemoryResultRepository()
		tournament := newTournament(t, moves, results, 10)

		updates := make(chan entity.Snapshot)
		collect := drain(updates)

		// When: the tournament runs
		result, err := tournament.Run(ctx, updates)
		collect()

		// Then: only the first game counts and the run is marked stopped
		require.NoError(t, err)
		assert.True(t, result.Stopped)
		assert.Equal(t, 1, result.Played)
		assert.Equal(t, 1, result.Scores[entity.PlayerX])

		stored, err := results.GetByID(context.Background(), result.ID)
		require.NoError(t, err)
		assert.True(t, stored.Stopped)
	})
}
