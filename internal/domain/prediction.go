package domain

import (
	"context"
	"time"
)

// Scoring methods recorded on an assessment.
const (
	MethodModel     = "model"
	MethodHeuristic = "heuristic"
)

// RiskAssessment is the outcome of scoring one set of metrics.
type RiskAssessment struct {
	Condition Condition `json:"disease"`
	Tier      RiskTier  `json:"riskLevel"`
	Score     float64   `json:"riskScore"`
	Message   string    `json:"message"`
	Advice    []string  `json:"advice"`
	Method    string    `json:"method"`
}

// PredictionRecord is one entry of a user's prediction history.
type PredictionRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Condition Condition `json:"disease"`
	Tier      RiskTier  `json:"riskLevel"`
	Score     float64   `json:"riskScore"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"createdAt"`
}

// PredictionRepository is the port for the append-only prediction history.
type PredictionRepository interface {
	AddPrediction(ctx context.Context, rec PredictionRecord) (int64, error)
	ListRecentPredictions(ctx context.Context, userID int64, limit int) ([]PredictionRecord, error)
}

// PredictionPublisher announces recorded predictions to other systems.
type PredictionPublisher interface {
	PublishPrediction(ctx context.Context, rec PredictionRecord) error
}
