package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

var ErrInvalidCount = errors.New("count must be positive")

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// saveResult stores result even when the run context was cancelled, so stopped runs are kept too.
func saveResult(ctx context.Context, logger *slog.Logger, results resultRepo, result *entity.Result) error {
	if results == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := results.Save(ctx, result); err != nil {
		logger.Error("failed to save result", "id", result.ID, "error", err)
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}
