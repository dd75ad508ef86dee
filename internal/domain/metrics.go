package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Request field names for the seven health metrics.
const (
	FieldAge               = "age"
	FieldBMI               = "bmi"
	FieldPhysicallyActive  = "physActivity"
	FieldGeneralHealth     = "genHlth"
	FieldHighBloodPressure = "highBP"
	FieldHighCholesterol   = "highChol"
	FieldSmoker            = "smoker"
)

// MetricFields lists the required fields in validation order.
var MetricFields = []string{
	FieldAge,
	FieldBMI,
	FieldPhysicallyActive,
	FieldGeneralHealth,
	FieldHighBloodPressure,
	FieldHighCholesterol,
	FieldSmoker,
}

// Value bounds.
const (
	MinAgeBucket     = 1
	MaxAgeBucket     = 13
	MinGeneralHealth = 1
	MaxGeneralHealth = 5
)

// HealthMetrics is a validated set of self-reported health metrics.
type HealthMetrics struct {
	// Age is a 5-year age band index, 1 (18-24) through 13 (80+).
	Age               int     `json:"age"`
	BMI               float64 `json:"bmi"`
	PhysicallyActive  bool    `json:"physActivity"`
	GeneralHealth     int     `json:"genHlth"` // 1 excellent .. 5 poor
	HighBloodPressure bool    `json:"highBP"`
	HighCholesterol   bool    `json:"highChol"`
	IsSmoker          bool    `json:"smoker"`
}

// Validate checks that every field lies in its domain.
func (m HealthMetrics) Validate() error {
	if m.Age < MinAgeBucket || m.Age > MaxAgeBucket {
		return &ValidationError{Field: FieldAge, Reason: fmt.Sprintf("must be between %d and %d", MinAgeBucket, MaxAgeBucket)}
	}
	if m.BMI <= 0 || math.IsNaN(m.BMI) || math.IsInf(m.BMI, 0) {
		return &ValidationError{Field: FieldBMI, Reason: "must be a positive number"}
	}
	if m.GeneralHealth < MinGeneralHealth || m.GeneralHealth > MaxGeneralHealth {
		return &ValidationError{Field: FieldGeneralHealth, Reason: fmt.Sprintf("must be between %d and %d", MinGeneralHealth, MaxGeneralHealth)}
	}
	return nil
}

// ParseMetrics coerces a decoded JSON object into HealthMetrics. Fields are
// checked in MetricFields order and the first problem is returned as a
// *ValidationError naming that field. A null value counts as missing.
func ParseMetrics(raw map[string]any) (HealthMetrics, error) {
	var m HealthMetrics
	for _, f := range MetricFields {
		v, ok := raw[f]
		if !ok || v == nil {
			return HealthMetrics{}, &ValidationError{Field: f}
		}
	}

	var err error
	if m.Age, err = coerceInt(raw[FieldAge]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldAge, Reason: err.Error()}
	}
	if m.BMI, err = coerceFloat(raw[FieldBMI]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldBMI, Reason: err.Error()}
	}
	if m.PhysicallyActive, err = coerceBool(raw[FieldPhysicallyActive]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldPhysicallyActive, Reason: err.Error()}
	}
	if m.GeneralHealth, err = coerceInt(raw[FieldGeneralHealth]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldGeneralHealth, Reason: err.Error()}
	}
	if m.HighBloodPressure, err = coerceBool(raw[FieldHighBloodPressure]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldHighBloodPressure, Reason: err.Error()}
	}
	if m.HighCholesterol, err = coerceBool(raw[FieldHighCholesterol]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldHighCholesterol, Reason: err.Error()}
	}
	if m.IsSmoker, err = coerceBool(raw[FieldSmoker]); err != nil {
		return HealthMetrics{}, &ValidationError{Field: FieldSmoker, Reason: err.Error()}
	}

	if err := m.Validate(); err != nil {
		return HealthMetrics{}, err
	}
	return m, nil
}

func coerceInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return truncInt(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x.String())
		}
		return truncInt(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func truncInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("out of range: %v", f)
	}
	return int(math.Trunc(f)), nil
}

func coerceFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func coerceBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case int64:
		return x != 0, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", x.String())
		}
		return f != 0, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "yes", "on", "y":
			return true, nil
		case "no", "off", "n":
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}
