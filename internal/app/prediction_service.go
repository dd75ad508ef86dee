package app

import (
	"context"
	"time"

	"healthrisk/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Assessor scores validated metrics for a condition.
type Assessor interface {
	Assess(c domain.Condition, m domain.HealthMetrics) (domain.RiskAssessment, error)
}

// PredictionObserver is told about every completed assessment.
type PredictionObserver interface {
	PredictionMade(a domain.RiskAssessment)
}

// PredictionService runs assessments and keeps the per-user history.
type PredictionService struct {
	scorer    Assessor
	repo      domain.PredictionRepository
	publisher domain.PredictionPublisher
	observer  PredictionObserver
	logger    *zap.Logger
}

// NewPredictionService creates a PredictionService.
func NewPredictionService(scorer Assessor, repo domain.PredictionRepository, logger *zap.Logger) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{scorer: scorer, repo: repo, logger: logger}
}

// WithPublisher announces recorded predictions through p.
func (s *PredictionService) WithPublisher(p domain.PredictionPublisher) *PredictionService {
	s.publisher = p
	return s
}

// WithObserver reports every assessment to o.
func (s *PredictionService) WithObserver(o PredictionObserver) *PredictionService {
	s.observer = o
	return s
}

// Predict parses the condition and raw metrics, assesses them and, when the
// caller is identified, appends the result to the caller's history. History
// and publishing failures are logged and never fail the prediction.
func (s *PredictionService) Predict(ctx context.Context, who *domain.Identity, condition string, raw map[string]any) (domain.RiskAssessment, error) {
	c, err := domain.ParseCondition(condition)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	m, err := domain.ParseMetrics(raw)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	a, err := s.scorer.Assess(c, m)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	if s.observer != nil {
		s.observer.PredictionMade(a)
	}
	if who != nil {
		s.record(ctx, *who, a)
	}
	return a, nil
}

func (s *PredictionService) record(ctx context.Context, who domain.Identity, a domain.RiskAssessment) {
	rec := domain.PredictionRecord{
		UserID:    who.UserID,
		Condition: a.Condition,
		Tier:      a.Tier,
		Score:     a.Score,
		Method:    a.Method,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.repo.AddPrediction(ctx, rec)
	if err != nil {
		s.logger.Error("record prediction",
			zap.Int64("user_id", who.UserID),
			zap.String("condition", a.Condition.String()),
			zap.Error(err),
		)
		return
	}
	rec.ID = id

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPrediction(ctx, rec); err != nil {
		s.logger.Warn("publish prediction",
			zap.Int64("prediction_id", id),
			zap.Error(err),
		)
	}
}

// History returns the user's most recent predictions, newest first. A
// non-positive limit selects the default; large limits are capped.
func (s *PredictionService) History(ctx context.Context, userID int64, limit int) ([]domain.PredictionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListRecentPredictions(ctx, userID, limit)
}
