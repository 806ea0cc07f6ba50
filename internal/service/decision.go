package service

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

type DecisionService interface {
	RequestDecision(ctx context.Context, self, opponent *entity.Player, history entity.History) entity.Decision
}

type decisionService struct {
	logger *slog.Logger

	generator generator
}

func NewDecisionService(logger *slog.Logger, generator generator) DecisionService {
	return &decisionService{
		logger:    logger.With("component", "decision"),
		generator: generator,
	}
}

// RequestDecision asks self's model to split or steal. The history must be seen from self's seat.
// Transport failures and unrecognised replies default to entity.Split and are never retried.
func (that *decisionService) RequestDecision(ctx context.Context, self, opponent *entity.Player, history entity.History) entity.Decision {
	log := that.logger.With("model", self.Model, "player", self.Name)

	prompt := splitOrStealPrompt(opponent.Name, history.Format(self.Name, opponent.Name))

	reply, err := that.generator.Generate(ctx, self.Model, prompt)
	if err != nil {
		log.Warn("failed to get decision, defaulting to split", "error", err)
		return entity.Split
	}

	decision, ok := entity.ParseDecision(reply)
	if !ok {
		log.Warn("invalid decision, defaulting to split", "reply", reply)
		return entity.Split
	}

	return decision
}
