package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
	"github.com/rocketscienceinc/llm-arena/internal/transport/ollama"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	args := m.Called(ctx, model, prompt)
	return args.String(0), args.Error(1)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fastOptions(fallback Fallback) MoveOptions {
	return MoveOptions{
		Attempts:       3,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
		Fallback:       fallback,
	}
}

func TestParseMove(t *testing.T) {
	valid := []int{0, 2, 4}

	t.Run("Accepts a bare integer", func(t *testing.T) {
		cell, err := ParseMove(" 4\n", valid)

		require.NoError(t, err)
		assert.Equal(t, 4, cell)
	})

	t.Run("Accepts a reply with exactly one integer", func(t *testing.T) {
		cell, err := ParseMove("Cell 2.", valid)

		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Rejects text without a single integer", func(t *testing.T) {
		for _, reply := range []string{"center", "", "4 or 2"} {
			_, err := ParseMove(reply, valid)
			require.ErrorIs(t, err, ErrUnparsableMove, reply)
		}
	})

	t.Run("Rejects occupied or out of range cells", func(t *testing.T) {
		for _, reply := range []string{"1", "9", "-1"} {
			_, err := ParseMove(reply, valid)
			require.ErrorIs(t, err, ErrIllegalMove, reply)
		}
	})
}

func TestMoveService_RequestMove(t *testing.T) {
	ctx := context.Background()
	player := entity.NewPlayer("", "llama3.2:1b", entity.PlayerX)

	t.Run("Returns the first valid reply", func(t *testing.T) {
		// Given: a model answering with a free cell
		generator := &mockGenerator{}
		generator.On("Generate", mock.Anything, "llama3.2:1b", mock.AnythingOfType("string")).
			Return("4", nil).
			Once()

		moves := NewMoveService(newLogger(), generator, NewBotService(), fastOptions(FallbackForfeit))

		// When: requesting a move on an empty board
		cell, err := moves.RequestMove(ctx, player, entity.NewGame())

		// Then: the cell is returned after one call
		require.NoError(t, err)
		assert.Equal(t, 4, cell)
		generator.AssertExpectations(t)
	})

	t.Run("Prompt embeds the board and the valid moves", func(t *testing.T) {
		// Given: a game with X in the corner
		game := entity.NewGame()
		require.NoError(t, game.MakeMove(0))
		playerO := entity.NewPlayer("", "llama3.2:3b", entity.PlayerO)

		generator := &mockGenerator{}
		generator.On("Generate", mock.Anything, "llama3.2:3b", mock.MatchedBy(func(prompt string) bool {
			return assert.Contains(t, prompt, "as O") &&
				assert.Contains(t, prompt, game.BoardState()) &&
				assert.Contains(t, prompt, "[1, 2, 3, 4, 5, 6, 7, 8]")
		})).Return("8", nil).Once()

		moves := NewMoveService(newLogger(), generator, NewBotService(), fastOptions(FallbackForfeit))

		// When: requesting O's move
		cell, err := moves.RequestMove(ctx, playerO, game)

		// Then: the prompt matched and the move is returned
		require.NoError(t, err)
		assert.Equal(t, 8, cell)
		generator.AssertExpectations(t)
	})

	t.Run("Retries invalid and failed replies", func(t *testing.T) {
		// Given: a model that first rambles, then times out, then answers
		generator := &mockGenerator{}
		generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("the middle one", nil).Once()
		generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", ollama.ErrTimeout).Once()
		generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("6", nil).Once()

		moves := NewMoveService(newLogger(), generator, NewBotService(), fastOptions(FallbackForfeit))

		// When: requesting a move
		cell, err := moves.RequestMove(ctx, player, entity.NewGame())

		// Then: the third reply is used
		require.NoError(t, err)
		assert.Equal(t, 6, cell)
		generator.AssertNumberOfCalls(t, "Generate", 3)
	})

	t.Run("Forfeits after the attempt budget", func(t *testing.T) {
		// Given: a model that never names a free cell
		game := entity.NewGame()
		require.NoError(t, game.MakeMove(0))

		generator := &mockGenerator{}
		generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("0", nil)

		moves := NewMoveService(newLogger(), generator, NewBotService(), fastOptions(FallbackForfeit))

		// When: requesting a move
		_, err := moves.RequestMove(ctx, entity.NewPlayer("", "stubborn", entity.PlayerO), game)

		// Then: the request ends with ErrMoveAttemptsExhausted after exactly three calls
		require.ErrorIs(t, err, apperror.ErrMoveAttemptsExhausted)
		require.ErrorIs(t, err, ErrIllegalMove)
		generator.AssertNumberOfCalls(t, "Generate", 3)
	})

	t.Run("Random fallback plays a valid cell", func(t *testing.T) {
		// Given: a board with one free cell and a useless model
		game := &entity.Game{
			Board: [9]string{
				entity.PlayerX, entity.PlayerO, entity.PlayerX,
				entity.PlayerX, entity.PlayerO, entity.PlayerO,
				entity.PlayerO, entity.PlayerX, entity.EmptyCell,
			},
			Turn:   entity.PlayerX,
			Status: entity.StatusOngoing,
		}

		generator := &mockGenerator{}
		generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("banana", nil)

		moves := NewMoveService(newLogger(), generator, NewBotService(), fastOptions(FallbackRandom))

		// When: requesting a move
		cell, err := moves.RequestMove(ctx, player, game)

		// Then: the only free cell is played
		require.NoError(t, err)
		assert.Equal(t, 8, cell)
	})

	t.Run("Stops when the context is cancelled", func(t *testing.T) {
		// Given: a cancelled context
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		generator := &mockGenerator{}
		generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", context.Canceled).Maybe()

		moves := NewMoveService(newLogger(), generator, NewBotService(), fastOptions(FallbackRandom))

		// When: requesting a move
		_, err := moves.RequestMove(cancelled, player, entity.NewGame())

		// Then: the cancellation is reported instead of a fallback move
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("No moves on a full board", func(t *testing.T) {
		game := entity.NewGame()
		for _, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			require.NoError(t, game.MakeMove(cell))
		}

		moves := NewMoveService(newLogger(), &mockGenerator{}, NewBotService(), fastOptions(FallbackForfeit))

		_, err := moves.RequestMove(ctx, player, game)

		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})
}

func TestDecisionService_RequestDecision(t *testing.T) {
	ctx := context.Background()
	self := entity.NewPlayer("Llama3.2 3B", "llama3.2:3b", "")
	opponent := entity.NewPlayer("Llama3.2 1B", "llama3.2:1b", "")

	tests := []struct {
		name  string
		reply string
		err   error
		want  entity.Decision
	}{
		{name: "padded upper-case steal", reply: "  STEAL \n", want: entity.Steal},
		{name: "plain split", reply: "split", want: entity.Split},
		{name: "garbage defaults to split", reply: "banana", want: entity.Split},
		{name: "transport failure defaults to split", err: ollama.ErrUnavailable, want: entity.Split},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a model with a fixed reply
			generator := &mockGenerator{}
			generator.On("Generate", mock.Anything, "llama3.2:3b", mock.MatchedBy(func(prompt string) bool {
				return assert.Contains(t, prompt, "Split or Steal game with Llama3.2 1B") &&
					assert.Contains(t, prompt, "No previous rounds played.")
			})).Return(tt.reply, tt.err).Once()

			decisions := NewDecisionService(newLogger(), generator)

			// When: asking for a decision
			decision := decisions.RequestDecision(ctx, self, opponent, nil)

			// Then: the reply is parsed or defaulted, with a single call
			assert.Equal(t, tt.want, decision)
			generator.AssertExpectations(t)
		})
	}
}

func TestBotService_ChooseMove(t *testing.T) {
	t.Run("Picks a free cell", func(t *testing.T) {
		game := entity.NewGame()
		require.NoError(t, game.MakeMove(4))

		cell, err := NewBotService().ChooseMove(game)

		require.NoError(t, err)
		assert.Contains(t, game.ValidMoves(), cell)
	})

	t.Run("Errors on a full board", func(t *testing.T) {
		game := &entity.Game{}
		for i := range game.Board {
			game.Board[i] = entity.PlayerX
		}

		_, err := NewBotService().ChooseMove(game)

		assert.True(t, errors.Is(err, apperror.ErrNoAvailableMoves))
	})
}
