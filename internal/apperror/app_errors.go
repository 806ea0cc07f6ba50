package apperror

import "errors"

var (
	ErrGameFinished          = errors.New("game is already finished")
	ErrGameNotStarted        = errors.New("game has no player to move")
	ErrCellOccupied          = errors.New("cell is already occupied")
	ErrInvalidCell           = errors.New("invalid cell index")
	ErrNoAvailableMoves      = errors.New("no available moves")
	ErrMoveAttemptsExhausted = errors.New("model did not produce a valid move")
	ErrResultNotFound        = errors.New("result not found")
)
