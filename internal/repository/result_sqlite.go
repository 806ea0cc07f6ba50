package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/llm-arena/internal/apperror"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

type sqlResult struct {
	conn *sql.DB
}

// NewSQLResultRepository expects the results table created by storage.SQLiteStorage.Init.
func NewSQLResultRepository(conn *sql.DB) ResultRepository {
	return &sqlResult{
		conn: conn,
	}
}

func (that *sqlResult) Save(ctx context.Context, result *entity.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	query := `INSERT INTO results (id, kind, winner, payload, finished_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			winner = excluded.winner,
			payload = excluded.payload,
			finished_at = excluded.finished_at`

	_, err = that.conn.ExecContext(ctx, query, result.ID, result.Kind, result.Winner, string(payload), result.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	return nil
}

func (that *sqlResult) GetByID(ctx context.Context, id string) (*entity.Result, error) {
	query := `SELECT payload FROM results WHERE id = ?`

	var payload string

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find result: %w", err)
	}

	var result entity.Result
	if err = json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

func (that *sqlResult) List(ctx context.Context, limit int) ([]*entity.Result, error) {
	if limit <= 0 {
		return []*entity.Result{}, nil
	}

	query := `SELECT payload FROM results ORDER BY finished_at DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}
	defer rows.Close()

	results := []*entity.Result{}
	for rows.Next() {
		var payload string
		if err = rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		var result entity.Result
		if err = json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}

	return results, nil
}
