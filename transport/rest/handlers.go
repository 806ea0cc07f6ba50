package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
	"github.com/rocketscienceinc/llm-arena/pkg/handlers"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Handlers interface {
	Health(w http.ResponseWriter, r *http.Request)
	ListModels(w http.ResponseWriter, r *http.Request)
	ListResults(w http.ResponseWriter, r *http.Request)
	GetResult(w http.ResponseWriter, r *http.Request)
}

type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type resultReader interface {
	GetByID(ctx context.Context, id string) (*entity.Result, error)
	List(ctx context.Context, limit int) ([]*entity.Result, error)
}

type handlersImpl struct {
	logger *slog.Logger

	models  modelLister
	results resultReader
}

func NewHandlers(logger *slog.Logger, models modelLister, results resultReader) Handlers {
	return &handlersImpl{
		logger:  logger.With("component", "rest"),
		models:  models,
		results: results,
	}
}

func (that *handlersImpl) Health(w http.ResponseWriter, _ *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (that *handlersImpl) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := that.models.ListModels(r.Context())
	if err != nil {
		that.logger.Error("failed to list models", "error", err)
		handlers.WriteError(w, http.StatusBadGateway, "model server unavailable")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string][]string{"models": models})
}

func (that *handlersImpl) ListResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			handlers.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxLimit)
	}

	results, err := that.results.List(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to list results", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "could not list results")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string][]*entity.Result{"results": results})
}

func (that *handlersImpl) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := that.results.GetByID(r.Context(), id)
	if errors.Is(err, apperror.ErrResultNotFound) {
		handlers.WriteError(w, http.StatusNotFound, "result not found")
		return
	}

	if err != nil {
		that.logger.Error("failed to get result", "id", id, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "could not get result")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, result)
}
