package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"healthrisk/internal/domain"
)

// FeatureOrder is the column order of the model's feature vector. A trained
// artifact must list exactly these names in exactly this order.
var FeatureOrder = []string{
	domain.FieldAge,
	domain.FieldBMI,
	domain.FieldPhysicallyActive,
	domain.FieldGeneralHealth,
	domain.FieldHighBloodPressure,
	domain.FieldHighCholesterol,
	domain.FieldSmoker,
}

// Model is a trained binary classifier. PredictProba returns the class
// probabilities for one feature vector; index 1 is the positive class.
type Model interface {
	PredictProba(features []float64) ([2]float64, error)
}

// Features builds the model input for m in FeatureOrder.
func Features(m domain.HealthMetrics) []float64 {
	return []float64{
		float64(m.Age),
		m.BMI,
		boolFeature(m.PhysicallyActive),
		float64(m.GeneralHealth),
		boolFeature(m.HighBloodPressure),
		boolFeature(m.HighCholesterol),
		boolFeature(m.IsSmoker),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ArtifactLoadError reports a missing or corrupt model artifact.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// ErrFeatureArity is returned when a feature vector has the wrong length.
var ErrFeatureArity = errors.New("feature vector length mismatch")

const kindLogistic = "logistic_regression"

// LogisticModel is a logistic-regression classifier exported as JSON.
type LogisticModel struct {
	features     []string
	intercept    float64
	coefficients []float64
}

type logisticArtifact struct {
	Kind         string    `json:"kind"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// NewLogisticModel builds a model from its parameters, checking that the
// feature names match FeatureOrder.
func NewLogisticModel(features []string, intercept float64, coefficients []float64) (*LogisticModel, error) {
	if !slices.Equal(features, FeatureOrder) {
		return nil, fmt.Errorf("feature order %v does not match %v", features, FeatureOrder)
	}
	if len(coefficients) != len(features) {
		return nil, fmt.Errorf("%d coefficients for %d features", len(coefficients), len(features))
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, errors.New("intercept is not finite")
	}
	return &LogisticModel{
		features:     slices.Clone(features),
		intercept:    intercept,
		coefficients: slices.Clone(coefficients),
	}, nil
}

// LoadModel reads a model artifact from path. Any failure is an
// *ArtifactLoadError.
func LoadModel(path string) (*LogisticModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	var a logisticArtifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if a.Kind != kindLogistic {
		return nil, &ArtifactLoadError{Path: path, Err: fmt.Errorf("unsupported model kind %q", a.Kind)}
	}
	m, err := NewLogisticModel(a.Features, a.Intercept, a.Coefficients)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return m, nil
}

// PredictProba implements Model.
func (m *LogisticModel) PredictProba(features []float64) ([2]float64, error) {
	if len(features) != len(m.coefficients) {
		return [2]float64{}, fmt.Errorf("%w: got %d, want %d", ErrFeatureArity, len(features), len(m.coefficients))
	}
	z := m.intercept
	for i, x := range features {
		z += m.coefficients[i] * x
	}
	p := 1 / (1 + math.Exp(-z))
	return [2]float64{1 - p, p}, nil
}
