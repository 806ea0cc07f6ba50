package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
	"github.com/rocketscienceinc/llm-arena/internal/pkg"
)

type decisionService interface {
	RequestDecision(ctx context.Context, self, opponent *entity.Player, history entity.History) entity.Decision
}

type SessionConfig struct {
	PlayerA    *entity.Player
	PlayerB    *entity.Player
	Rounds     int
	RoundDelay time.Duration
}

// Session plays repeated Split-or-Steal rounds. Both models decide every round
// without seeing the other's current choice.
type Session struct {
	logger *slog.Logger

	decisions decisionService
	results   resultRepo
	conf      SessionConfig
}

func NewSession(logger *slog.Logger, decisions decisionService, results resultRepo, conf SessionConfig) (*Session, error) {
	if conf.PlayerA == nil || conf.PlayerB == nil || conf.PlayerA == conf.PlayerB {
		return nil, ErrSamePlayer
	}

	if conf.Rounds <= 0 {
		return nil, fmt.Errorf("%w: rounds %d", ErrInvalidCount, conf.Rounds)
	}

	// scores are keyed by name
	if conf.PlayerA.Name == conf.PlayerB.Name {
		conf.PlayerA.Name += " (A)"
		conf.PlayerB.Name += " (B)"
	}

	return &Session{
		logger:    logger.With("component", "session"),
		decisions: decisions,
		results:   results,
		conf:      conf,
	}, nil
}

// Run plays all rounds and closes updates when it returns.
func (that *Session) Run(ctx context.Context, updates chan<- entity.RoundRecord) (*entity.Result, error) {
	if updates != nil {
		defer close(updates)
	}

	id, err := pkg.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate result id: %w", err)
	}

	playerA, playerB := that.conf.PlayerA, that.conf.PlayerB

	log := that.logger.With("id", id, "a", playerA.Model, "b", playerB.Model)
	log.Info("session started", "rounds", that.conf.Rounds)

	scores := entity.NewScoreBoard(playerA.Name, playerB.Name)
	result := &entity.Result{
		ID:        id,
		Kind:      entity.KindSplitOrSteal,
		Players:   []*entity.Player{playerA, playerB},
		Planned:   that.conf.Rounds,
		StartedAt: time.Now().UTC(),
	}

	var history entity.History
	for round := 1; round <= that.conf.Rounds; round++ {
		if ctx.Err() != nil {
			result.Stopped = true
			break
		}

		decisionA := that.decisions.RequestDecision(ctx, playerA, playerB, history)
		decisionB := that.decisions.RequestDecision(ctx, playerB, playerA, history.Mirror())

		// a cancelled request defaults to split, which must not be scored
		if ctx.Err() != nil {
			result.Stopped = true
			break
		}

		pointsA, pointsB := entity.ScoreRound(decisionA, decisionB)
		scores.Add(playerA.Name, pointsA)
		scores.Add(playerB.Name, pointsB)

		record := entity.RoundRecord{
			Round:     round,
			DecisionA: decisionA,
			DecisionB: decisionB,
			PointsA:   pointsA,
			PointsB:   pointsB,
			TotalA:    scores.Get(playerA.Name),
			TotalB:    scores.Get(playerB.Name),
			Result:    fmt.Sprintf("%s got %d points, %s got %d points", playerA.Name, pointsA, playerB.Name, pointsB),
		}
		history = append(history, record)
		result.Played++

		log.Debug("round finished", "round", round, "a", decisionA, "b", decisionB)

		if updates != nil {
			select {
			case updates <- record:
			case <-ctx.Done():
			}
		}

		if round < that.conf.Rounds {
			if err = sleep(ctx, that.conf.RoundDelay); err != nil {
				result.Stopped = true
				break
			}
		}
	}

	stats := history.Stats()
	result.Rounds = history
	result.Stats = &stats
	result.Scores = scores.Snapshot()
	result.FinishedAt = time.Now().UTC()

	if leader, tie := scores.Leader(playerA.Name, playerB.Name); tie {
		result.Tie = true
	} else {
		result.Winner = leader
	}

	log.Info("session finished", "played", result.Played, "scores", result.Scores, "winner", result.Winner, "stopped", result.Stopped)

	if err = saveResult(ctx, that.logger, that.results, result); err != nil {
		return result, err
	}

	return result, nil
}
