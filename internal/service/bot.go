package service

import (
	"math/rand"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

// BotService picks a move without asking a model. It backs the random fallback policy.
type BotService interface {
	ChooseMove(game *entity.Game) (int, error)
}

type botService struct {
	intn func(n int) int
}

func NewBotService() BotService {
	return &botService{intn: rand.Intn} //nolint: gosec // it's ok
}

func (that *botService) ChooseMove(game *entity.Game) (int, error) {
	availableCells := game.ValidMoves()
	if len(availableCells) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	return availableCells[that.intn(len(availableCells))], nil
}
