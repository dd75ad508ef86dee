package risk

import (
	"fmt"
	"math"

	"healthrisk/internal/domain"

	"go.uber.org/zap"
)

// FallbackRecorder is notified when the model path falls back to the
// heuristic.
type FallbackRecorder interface {
	ModelFallback(c domain.Condition)
}

// Scorer assesses health metrics. The model, when set, is used for diabetes
// only; hypertension is always scored by the heuristic.
type Scorer struct {
	model    Model
	logger   *zap.Logger
	fallback FallbackRecorder
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithModel sets the trained model used for diabetes.
func WithModel(m Model) Option {
	return func(s *Scorer) { s.model = m }
}

// WithLogger sets the logger used to report model failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// WithFallbackRecorder sets a hook called on each model fallback.
func WithFallbackRecorder(r FallbackRecorder) Option {
	return func(s *Scorer) { s.fallback = r }
}

// NewScorer creates a Scorer. Without WithModel it is heuristic-only.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasModel reports whether a trained model is configured.
func (s *Scorer) HasModel() bool {
	return s.model != nil
}

// Assess scores m for condition c.
func (s *Scorer) Assess(c domain.Condition, m domain.HealthMetrics) (domain.RiskAssessment, error) {
	if c != domain.Diabetes && c != domain.Hypertension {
		return domain.RiskAssessment{}, &domain.UnsupportedConditionError{Value: string(c)}
	}
	if err := m.Validate(); err != nil {
		return domain.RiskAssessment{}, err
	}

	method := domain.MethodHeuristic
	var score float64
	if p, ok := s.modelScore(c, m); ok {
		score, method = p, domain.MethodModel
	} else {
		var err error
		if score, err = HeuristicScore(c, m); err != nil {
			return domain.RiskAssessment{}, err
		}
	}

	tier := domain.TierFor(c, score)
	return domain.RiskAssessment{
		Condition: c,
		Tier:      tier,
		Score:     score,
		Message:   Message(c, tier),
		Advice:    Advice(c, m, tier),
		Method:    method,
	}, nil
}

func (s *Scorer) modelScore(c domain.Condition, m domain.HealthMetrics) (float64, bool) {
	if s.model == nil || c != domain.Diabetes {
		return 0, false
	}
	p, err := s.predict(m)
	if err != nil {
		s.logger.Warn("model prediction failed, using heuristic",
			zap.String("condition", c.String()),
			zap.Error(err),
		)
		if s.fallback != nil {
			s.fallback.ModelFallback(c)
		}
		return 0, false
	}
	return p, true
}

func (s *Scorer) predict(m domain.HealthMetrics) (p float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()
	proba, err := s.model.PredictProba(Features(m))
	if err != nil {
		return 0, err
	}
	p = proba[1]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("model returned non-finite probability %v", p)
	}
	return math.Min(1, math.Max(0, p)), nil
}
