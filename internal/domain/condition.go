package domain

import (
	"fmt"
	"strings"
)

// Condition is a health condition the scorer can assess.
type Condition string

// Supported conditions.
const (
	Diabetes     Condition = "diabetes"
	Hypertension Condition = "hypertension"
)

// DefaultCondition is used when a request does not name one.
const DefaultCondition = Diabetes

// ParseCondition maps a request value to a Condition. An empty value selects
// DefaultCondition.
func ParseCondition(s string) (Condition, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch Condition(v) {
	case "":
		return DefaultCondition, nil
	case Diabetes:
		return Diabetes, nil
	case Hypertension:
		return Hypertension, nil
	default:
		return "", &UnsupportedConditionError{Value: s}
	}
}

func (c Condition) String() string { return string(c) }

// RiskTier is a coarse bucket derived from a risk score.
type RiskTier string

// Risk tiers, lowest first.
const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// ParseRiskTier reconstructs a RiskTier from its stored form.
func ParseRiskTier(s string) (RiskTier, error) {
	switch RiskTier(s) {
	case TierLow, TierMedium, TierHigh:
		return RiskTier(s), nil
	default:
		return "", fmt.Errorf("invalid risk tier: %q", s)
	}
}

func (t RiskTier) String() string { return string(t) }

// Thresholds are the inclusive lower bounds of the Medium and High tiers.
type Thresholds struct {
	Medium float64
	High   float64
}

// ThresholdsFor returns the tier thresholds of c.
func ThresholdsFor(c Condition) Thresholds {
	switch c {
	case Hypertension:
		return Thresholds{Medium: 0.30, High: 0.60}
	default:
		return Thresholds{Medium: 0.30, High: 0.70}
	}
}

// TierFor derives the tier of score for condition c. It depends on nothing
// but its two arguments.
func TierFor(c Condition, score float64) RiskTier {
	th := ThresholdsFor(c)
	switch {
	case score >= th.High:
		return TierHigh
	case score >= th.Medium:
		return TierMedium
	default:
		return TierLow
	}
}
