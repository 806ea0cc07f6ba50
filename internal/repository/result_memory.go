package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

type memoryResult struct {
	mu      sync.RWMutex
	results map[string]*entity.Result
}

// NewMemoryResultRepository keeps results for the lifetime of the process.
func NewMemoryResultRepository() ResultRepository {
	return &memoryResult{
		results: make(map[string]*entity.Result),
	}
}

func (that *memoryResult) Save(_ context.Context, result *entity.Result) error {
	stored := *result

	that.mu.Lock()
	defer that.mu.Unlock()

	that.results[result.ID] = &stored

	return nil
}

func (that *memoryResult) GetByID(_ context.Context, id string) (*entity.Result, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	result, ok := that.results[id]
	if !ok {
		return nil, apperror.ErrResultNotFound
	}

	found := *result
	return &found, nil
}

func (that *memoryResult) List(_ context.Context, limit int) ([]*entity.Result, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	results := make([]*entity.Result, 0, len(that.results))
	for _, result := range that.results {
		listed := *result
		results = append(results, &listed)
	}

	slices.SortFunc(results, func(a, b *entity.Result) int {
		return b.FinishedAt.Compare(a.FinishedAt)
	})

	if limit < 0 {
		limit = 0
	}

	return results[:min(limit, len(results))], nil
}
