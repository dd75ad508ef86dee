package risk

import (
	"fmt"
	"strings"

	"healthrisk/internal/domain"
)

type tip struct {
	text string
	when func(m domain.HealthMetrics, tier domain.RiskTier) bool
}

const generalTip = "Keep up your healthy habits and get a routine check-up once a year."

var diabetesTips = []tip{
	{"Aim for gradual weight loss; losing 5-7% of body weight lowers diabetes risk.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.BMI > 25 }},
	{"Get at least 150 minutes of moderate activity, such as brisk walking, each week.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return !m.PhysicallyActive }},
	{"Ask your doctor for a fasting glucose or HbA1c test.",
		func(m domain.HealthMetrics, tier domain.RiskTier) bool { return tier != domain.TierLow || m.Age > 8 }},
	{"Keep your blood pressure under control; it adds to diabetes complications.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.HighBloodPressure }},
	{"Cut back on sugary drinks and refined carbohydrates.",
		func(_ domain.HealthMetrics, tier domain.RiskTier) bool { return tier == domain.TierHigh }},
	{"Talk to a clinician about how you have been feeling lately.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.GeneralHealth > 3 }},
}

var hypertensionTips = []tip{
	{"Limit salt to under 2,300 mg of sodium a day.",
		func(_ domain.HealthMetrics, tier domain.RiskTier) bool { return tier != domain.TierLow }},
	{"Losing even a few kilograms can lower blood pressure.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.BMI > 25 }},
	{"Quit smoking; each cigarette raises blood pressure for some time afterwards.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.IsSmoker }},
	{"Choose foods low in saturated fat to help manage cholesterol.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.HighCholesterol }},
	{"Regular aerobic exercise helps lower blood pressure.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return !m.PhysicallyActive }},
	{"Check your blood pressure at least once a year.",
		func(m domain.HealthMetrics, _ domain.RiskTier) bool { return m.Age > 7 }},
}

// Advice returns recommendations for m in a fixed order per condition. It
// never fails; an unknown condition yields only the general tip.
func Advice(c domain.Condition, m domain.HealthMetrics, tier domain.RiskTier) []string {
	var tips []tip
	switch c {
	case domain.Diabetes:
		tips = diabetesTips
	case domain.Hypertension:
		tips = hypertensionTips
	}

	out := make([]string, 0, len(tips))
	for _, t := range tips {
		if t.when(m, tier) {
			out = append(out, t.text)
		}
	}
	if len(out) == 0 {
		out = append(out, generalTip)
	}
	return out
}

// Message returns the one-line risk summary shown next to the advice.
func Message(c domain.Condition, tier domain.RiskTier) string {
	subject := "hypertension"
	if c == domain.Diabetes {
		subject = "prediabetes or Type 2 Diabetes"
	}
	return fmt.Sprintf("You may be at %s risk of %s.", strings.ToLower(tier.String()), subject)
}
