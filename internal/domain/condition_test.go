package domain_test

import (
	"errors"
	"testing"

	"healthrisk/internal/domain"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Condition
		wantErr bool
	}{
		{"", domain.Diabetes, false},
		{"diabetes", domain.Diabetes, false},
		{" Hypertension ", domain.Hypertension, false},
		{"cancer", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseCondition(tc.in)
			if tc.wantErr {
				var uce *domain.UnsupportedConditionError
				if !errors.As(err, &uce) {
					t.Fatalf("expected UnsupportedConditionError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseCondition(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		name      string
		condition domain.Condition
		score     float64
		want      domain.RiskTier
	}{
		{"diabetes floor", domain.Diabetes, 0.10, domain.TierLow},
		{"diabetes just below medium", domain.Diabetes, 0.29, domain.TierLow},
		{"diabetes medium bound", domain.Diabetes, 0.30, domain.TierMedium},
		{"diabetes just below high", domain.Diabetes, 0.69, domain.TierMedium},
		{"diabetes high bound", domain.Diabetes, 0.70, domain.TierHigh},
		{"hypertension medium bound", domain.Hypertension, 0.30, domain.TierMedium},
		{"hypertension 0.65", domain.Hypertension, 0.65, domain.TierHigh},
		{"hypertension high bound", domain.Hypertension, 0.60, domain.TierHigh},
		{"same score differs by condition", domain.Diabetes, 0.65, domain.TierMedium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.TierFor(tc.condition, tc.score); got != tc.want {
				t.Errorf("TierFor(%s, %v) = %s; want %s", tc.condition, tc.score, got, tc.want)
			}
		})
	}
}

func TestParseRiskTier(t *testing.T) {
	for _, s := range []string{"Low", "Medium", "High"} {
		if _, err := domain.ParseRiskTier(s); err != nil {
			t.Errorf("ParseRiskTier(%q): %v", s, err)
		}
	}
	if _, err := domain.ParseRiskTier("Critical"); err == nil {
		t.Error("expected error for unknown tier")
	}
}
