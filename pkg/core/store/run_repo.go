package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quarterly_intel/pkg/models"
)

// RunRepo keeps runs as JSONB rows in docintel_runs and events in docintel_events.
type RunRepo struct {
	pool *pgxpool.Pool
}

var (
	_ RunStore   = (*RunRepo)(nil)
	_ RunCatalog = (*RunRepo)(nil)
)

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

func (r *RunRepo) StartRun(ctx context.Context, requestID, ticker string) error {
	query := `
		INSERT INTO docintel_runs (request_id, ticker, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, requestID, ticker, StatusRunning); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// SaveRun upserts the finished insights for a request.
func (r *RunRepo) SaveRun(ctx context.Context, insights *models.DocumentInsights) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	query := `
		INSERT INTO docintel_runs (request_id, ticker, status, insights, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_id)
		DO UPDATE SET
			ticker = EXCLUDED.ticker,
			status = EXCLUDED.status,
			insights = EXCLUDED.insights,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query, insights.RequestID, insights.Ticker, StatusCompleted, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (r *RunRepo) LoadRun(ctx context.Context, requestID string) (*models.DocumentInsights, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT insights FROM docintel_runs WHERE request_id = $1`, requestID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, requestID)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s has not completed", ErrRunNotFound, requestID)
	}

	var insights models.DocumentInsights
	if err := json.Unmarshal(data, &insights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
	}
	return &insights, nil
}

func (r *RunRepo) ListRuns(ctx context.Context, ticker string) ([]*models.DocumentInsights, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT insights FROM docintel_runs
		WHERE insights IS NOT NULL AND ($1 = '' OR lower(ticker) = lower($1))
		ORDER BY updated_at DESC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*models.DocumentInsights
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var insights models.DocumentInsights
		if err := json.Unmarshal(data, &insights); err != nil {
			return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
		}
		out = append(out, &insights)
	}
	return out, rows.Err()
}

func (r *RunRepo) LogEvent(ctx context.Context, requestID, kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	query := `INSERT INTO docintel_events (request_id, kind, payload) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, query, requestID, kind, data); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}
