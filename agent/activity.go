package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "success"
	ActivityError   ActivityStatus = "error"
)

// Activity is one append-only audit record of a dispatch attempt. Rows are
// never mutated or deleted; reporting views consume them in insert order.
type Activity struct {
	ID           string
	LeadID       string
	ActivityType string
	Description  string
	OutputData   map[string]any
	Status       ActivityStatus
	DurationMs   int64
	CreatedAt    time.Time
}

// ActivityRepository appends and reads dispatch audit records.
type ActivityRepository interface {
	Append(ctx context.Context, a Activity) (Activity, error)
	ListByLead(ctx context.Context, leadID string) ([]Activity, error)
}

// PGActivityRepository implements ActivityRepository backed by PostgreSQL.
type PGActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *PGActivityRepository {
	return &PGActivityRepository{pool: pool}
}

const activityColumns = `id, lead_id, activity_type, description, output_data, status, duration_ms, created_at`

func (r *PGActivityRepository) Append(ctx context.Context, a Activity) (Activity, error) {
	const insert = `
		INSERT INTO agent_activities (lead_id, activity_type, description, output_data, status, duration_ms)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		RETURNING ` + activityColumns

	output, err := json.Marshal(a.OutputData)
	if err != nil {
		return Activity{}, fmt.Errorf("agent: marshal activity output: %w", err)
	}

	created, err := scanActivity(r.pool.QueryRow(ctx, insert,
		a.LeadID, a.ActivityType, a.Description, string(output), a.Status, a.DurationMs))
	if err != nil {
		return Activity{}, fmt.Errorf("agent: append activity: %w", err)
	}
	return created, nil
}

func (r *PGActivityRepository) ListByLead(ctx context.Context, leadID string) ([]Activity, error) {
	const query = `SELECT ` + activityColumns + ` FROM agent_activities WHERE lead_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("agent: list activities: %w", err)
	}
	defer rows.Close()

	list := []Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("agent: scan activity: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanActivity(row pgx.Row) (Activity, error) {
	var (
		a      Activity
		output []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.LeadID,
		&a.ActivityType,
		&a.Description,
		&output,
		&a.Status,
		&a.DurationMs,
		&a.CreatedAt,
	); err != nil {
		return Activity{}, err
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &a.OutputData); err != nil {
			return Activity{}, fmt.Errorf("agent: decode activity output: %w", err)
		}
	}
	return a, nil
}
