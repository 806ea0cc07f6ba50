package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
	"github.com/rocketscienceinc/llm-arena/internal/pkg"
)

const saveTimeout = 5 * time.Second

var ErrSamePlayer = errors.New("both sides need their own player")

type moveService interface {
	RequestMove(ctx context.Context, player *entity.Player, game *entity.Game) (int, error)
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result) error
}

type TournamentConfig struct {
	PlayerX   *entity.Player
	PlayerO   *entity.Player
	Games     int
	MoveDelay time.Duration
}

// Tournament plays a fixed number of Tic-Tac-Toe games between two models.
// The scoreboard lives for the whole run, the board is fresh every game.
type Tournament struct {
	logger *slog.Logger

	moves   moveService
	results resultRepo
	conf    TournamentConfig
}

// NewTournament builds a driver. results may be nil when nothing should be stored.
func NewTournament(logger *slog.Logger, moves moveService, results resultRepo, conf TournamentConfig) (*Tournament, error) {
	if conf.PlayerX == nil || conf.PlayerO == nil || conf.PlayerX == conf.PlayerO {
		return nil, ErrSamePlayer
	}

	if conf.Games <= 0 {
		return nil, fmt.Errorf("%w: games %d", ErrInvalidCount, conf.Games)
	}

	conf.PlayerX.Mark = entity.PlayerX
	conf.PlayerO.Mark = entity.PlayerO

	return &Tournament{
		logger:  logger.With("component", "tournament"),
		moves:   moves,
		results: results,
		conf:    conf,
	}, nil
}

// Run plays all games and closes updates when it returns. Cancelling ctx stops the
// run between moves; the partial result is still returned and stored.
func (that *Tournament) Run(ctx context.Context, updates chan<- entity.Snapshot) (*entity.Result, error) {
	if updates != nil {
		defer close(updates)
	}

	id, err := pkg.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate result id: %w", err)
	}

	log := that.logger.With("id", id, "x", that.conf.PlayerX.Model, "o", that.conf.PlayerO.Model)
	log.Info("tournament started", "games", that.conf.Games)

	scores := entity.NewScoreBoard(entity.PlayerX, entity.PlayerO, entity.ResultDraw)
	result := &entity.Result{
		ID:        id,
		Kind:      entity.KindTicTacToe,
		Players:   []*entity.Player{that.conf.PlayerX, that.conf.PlayerO},
		Planned:   that.conf.Games,
		StartedAt: time.Now().UTC(),
	}

	var runErr error
	for gameNumber := 1; gameNumber <= that.conf.Games; gameNumber++ {
		game, playErr := that.playGame(ctx, log, gameNumber, scores, updates)
		if playErr != nil {
			if ctx.Err() != nil {
				result.Stopped = true
				break
			}

			runErr = fmt.Errorf("game %d: %w", gameNumber, playErr)
			that.publish(ctx, updates, that.snapshot(gameNumber, game, nil, scores, runErr))
			break
		}

		scores.Add(game.Winner, 1)
		result.Played++

		log.Info("game finished", "game", gameNumber, "outcome", game.Winner)

		snapshot := that.snapshot(gameNumber, game, nil, scores, nil)
		snapshot.Outcome = game.Winner
		snapshot.GameOver = true
		that.publish(ctx, updates, snapshot)
	}

	result.Scores = scores.Snapshot()
	result.FinishedAt = time.Now().UTC()

	if leader, tie := scores.Leader(entity.PlayerX, entity.PlayerO); tie {
		result.Tie = true
	} else {
		result.Winner = that.playerFor(leader).Name
	}

	log.Info("tournament finished", "played", result.Played, "scores", result.Scores, "winner", result.Winner, "stopped", result.Stopped)

	if err = that.save(ctx, result); err != nil {
		return result, errors.Join(runErr, err)
	}

	return result, runErr
}

func (that *Tournament) playGame(ctx context.Context, log *slog.Logger, gameNumber int, scores *entity.ScoreBoard, updates chan<- entity.Snapshot) (*entity.Game, error) {
	game := entity.NewGame()

	for !game.IsFinished() {
		if err := ctx.Err(); err != nil {
			return game, err
		}

		player := that.playerFor(game.Turn)
		that.publish(ctx, updates, that.snapshot(gameNumber, game, player, scores, nil))

		cell, err := that.moves.RequestMove(ctx, player, game)
		if errors.Is(err, apperror.ErrMoveAttemptsExhausted) {
			log.Warn("player forfeits the game", "game", gameNumber, "model", player.Model, "error", err)
			game.Forfeit(player.Mark)
			break
		}

		if err != nil {
			return game, fmt.Errorf("failed to request move: %w", err)
		}

		if err = game.MakeMove(cell); err != nil {
			return game, fmt.Errorf("failed to apply move: %w", err)
		}

		if !game.IsFinished() {
			if err = sleep(ctx, that.conf.MoveDelay); err != nil {
				return game, err
			}
		}
	}

	return game, nil
}

func (that *Tournament) playerFor(mark string) *entity.Player {
	if mark == entity.PlayerO {
		return that.conf.PlayerO
	}
	return that.conf.PlayerX
}

func (that *Tournament) snapshot(gameNumber int, game *entity.Game, acting *entity.Player, scores *entity.ScoreBoard, err error) entity.Snapshot {
	snapshot := entity.Snapshot{
		GameNumber: gameNumber,
		Games:      that.conf.Games,
		Acting:     acting,
		Scores:     scores.Snapshot(),
	}

	if game != nil {
		snapshot.Game = *game.Clone()
	}

	if err != nil {
		snapshot.Err = err.Error()
	}

	return snapshot
}

func (that *Tournament) publish(ctx context.Context, updates chan<- entity.Snapshot, snapshot entity.Snapshot) {
	if updates == nil {
		return
	}

	select {
	case updates <- snapshot:
	case <-ctx.Done():
	}
}

func (that *Tournament) save(ctx context.Context, result *entity.Result) error {
	return saveResult(ctx, that.logger, that.results, result)
}
