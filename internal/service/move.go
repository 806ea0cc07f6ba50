package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

type Fallback string

const (
	FallbackForfeit Fallback = "forfeit"
	FallbackRandom  Fallback = "random"
)

const (
	defaultAttempts       = 5
	defaultBackoffInitial = 500 * time.Millisecond
	defaultBackoffMax     = 5 * time.Second
)

var (
	ErrUnparsableMove = errors.New("reply is not a single cell index")
	ErrIllegalMove    = errors.New("cell is not a valid move")

	integerPattern = regexp.MustCompile(`-?\d+`)
)

type generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type MoveOptions struct {
	Attempts       int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	Fallback       Fallback
}

type MoveService interface {
	RequestMove(ctx context.Context, player *entity.Player, game *entity.Game) (int, error)
}

type moveService struct {
	logger *slog.Logger

	generator generator
	bot       BotService
	opts      MoveOptions
}

func NewMoveService(logger *slog.Logger, generator generator, bot BotService, opts MoveOptions) MoveService {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}

	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = defaultBackoffInitial
	}

	if opts.BackoffMax < opts.BackoffInitial {
		opts.BackoffMax = max(defaultBackoffMax, opts.BackoffInitial)
	}

	if opts.Fallback == "" {
		opts.Fallback = FallbackForfeit
	}

	return &moveService{
		logger:    logger.With("component", "move"),
		generator: generator,
		bot:       bot,
		opts:      opts,
	}
}

// RequestMove asks the player's model for a cell until it names a valid one.
// After opts.Attempts failed replies the fallback policy decides: forfeit returns
// apperror.ErrMoveAttemptsExhausted, random plays a random valid cell.
func (that *moveService) RequestMove(ctx context.Context, player *entity.Player, game *entity.Game) (int, error) {
	log := that.logger.With("model", player.Model, "mark", player.Mark)

	valid := game.ValidMoves()
	if len(valid) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	prompt := ticTacToePrompt(player.Mark, game)

	var (
		move    int
		attempt int
	)

	operation := func() error {
		attempt++

		reply, err := that.generator.Generate(ctx, player.Model, prompt)
		if err != nil {
			return fmt.Errorf("failed to get reply: %w", err)
		}

		cell, err := ParseMove(reply, valid)
		if err != nil {
			return err
		}

		move = cell
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("invalid move reply, retrying", "attempt", attempt, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(operation, that.newBackOff(ctx), notify)
	if err == nil {
		return move, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	log.Warn("move attempts exhausted", "attempts", attempt, "fallback", that.opts.Fallback, "error", err)

	if that.opts.Fallback == FallbackRandom {
		cell, botErr := that.bot.ChooseMove(game)
		if botErr != nil {
			return 0, fmt.Errorf("random fallback failed: %w", botErr)
		}

		return cell, nil
	}

	return 0, fmt.Errorf("%w: %s after %d attempts: %w", apperror.ErrMoveAttemptsExhausted, player.Model, attempt, err)
}

func (that *moveService) newBackOff(ctx context.Context) backoff.BackOff {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = that.opts.BackoffInitial
	exponential.MaxInterval = that.opts.BackoffMax
	exponential.MaxElapsedTime = 0
	exponential.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(that.opts.Attempts-1)), ctx)
}

// ParseMove reduces a model reply to one of the valid cells. The reply must be a
// single integer, or contain exactly one.
func ParseMove(reply string, valid []int) (int, error) {
	text := strings.TrimSpace(reply)

	cell, err := strconv.Atoi(text)
	if err != nil {
		numbers := integerPattern.FindAllString(text, -1)
		if len(numbers) != 1 {
			return 0, fmt.Errorf("%w: %q", ErrUnparsableMove, text)
		}

		if cell, err = strconv.Atoi(numbers[0]); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnparsableMove, text)
		}
	}

	if !slices.Contains(valid, cell) {
		return 0, fmt.Errorf("%w: %d", ErrIllegalMove, cell)
	}

	return cell, nil
}
