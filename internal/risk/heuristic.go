// Package risk scores health metrics for a condition. Scoring is pure: a
// Scorer holds only immutable configuration and is safe for concurrent use.
package risk

import "healthrisk/internal/domain"

// Heuristic weights are kept in hundredths so that sums compare exactly
// against the tier thresholds.
type rule struct {
	points int
	hit    func(domain.HealthMetrics) bool
}

type heuristic struct {
	base  int
	max   int
	rules []rule
}

func (h heuristic) score(m domain.HealthMetrics) float64 {
	total := h.base
	for _, r := range h.rules {
		if r.hit(m) {
			total += r.points
		}
	}
	if total > h.max {
		total = h.max
	}
	return float64(total) / 100
}

var diabetesHeuristic = heuristic{
	base: 10,
	max:  99,
	rules: []rule{
		{20, func(m domain.HealthMetrics) bool { return m.Age > 8 }},
		{30, func(m domain.HealthMetrics) bool { return m.BMI > 30 }},
		{15, func(m domain.HealthMetrics) bool { return !m.PhysicallyActive }},
		{20, func(m domain.HealthMetrics) bool { return m.GeneralHealth > 3 }},
		{15, func(m domain.HealthMetrics) bool { return m.HighBloodPressure }},
	},
}

var hypertensionHeuristic = heuristic{
	base: 10,
	max:  95,
	rules: []rule{
		{25, func(m domain.HealthMetrics) bool { return m.Age > 7 }},
		{20, func(m domain.HealthMetrics) bool { return m.BMI > 25 }},
		{15, func(m domain.HealthMetrics) bool { return m.HighCholesterol }},
		{10, func(m domain.HealthMetrics) bool { return m.IsSmoker }},
		{20, func(m domain.HealthMetrics) bool { return m.GeneralHealth > 3 }},
	},
}

// HeuristicScore returns the rule-based score of m for condition c.
func HeuristicScore(c domain.Condition, m domain.HealthMetrics) (float64, error) {
	switch c {
	case domain.Diabetes:
		return diabetesHeuristic.score(m), nil
	case domain.Hypertension:
		return hypertensionHeuristic.score(m), nil
	default:
		return 0, &domain.UnsupportedConditionError{Value: string(c)}
	}
}
