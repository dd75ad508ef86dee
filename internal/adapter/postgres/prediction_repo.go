package postgres

import (
	"context"
	"fmt"

	"healthrisk/internal/domain"
)

var _ domain.PredictionRepository = (*DB)(nil)

// AddPrediction appends a record to the user's history.
func (d *DB) AddPrediction(ctx context.Context, rec domain.PredictionRecord) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO predictions (user_id, condition, risk_level, risk_score, method, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		rec.UserID, string(rec.Condition), string(rec.Tier), rec.Score, rec.Method, rec.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert prediction: %w", err)
	}
	return id, nil
}

// ListRecentPredictions returns up to limit records for the user, newest first.
func (d *DB) ListRecentPredictions(ctx context.Context, userID int64, limit int) ([]domain.PredictionRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, condition, risk_level, risk_score, method, created_at FROM predictions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.PredictionRecord
	for rows.Next() {
		var rec domain.PredictionRecord
		var condition, tier string
		if err := rows.Scan(&rec.ID, &rec.UserID, &condition, &tier, &rec.Score, &rec.Method, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if rec.Condition, err = domain.ParseCondition(condition); err != nil {
			return nil, fmt.Errorf("prediction %d: %w", rec.ID, err)
		}
		if rec.Tier, err = domain.ParseRiskTier(tier); err != nil {
			return nil, fmt.Errorf("prediction %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
