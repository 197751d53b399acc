// internal/churn/model.go
package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Classifier is the trained model as seen by the engine.
type Classifier interface {
	PredictProba(record Record) (float64, error)
	FeatureImportances() []FeatureImportance
}

// NumericTerm standardizes a numeric column before weighting it.
type NumericTerm struct {
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
	Weight float64 `json:"weight"`
}

// Artifact is the serialized form of a trained model exported by the training job.
type Artifact struct {
	Version            string                        `json:"version"`
	Features           []string                      `json:"features"`
	FeatureImportances []float64                     `json:"feature_importances"`
	Intercept          float64                       `json:"intercept"`
	Numeric            map[string]NumericTerm        `json:"numeric"`
	Categorical        map[string]map[string]float64 `json:"categorical"`
}

// Model is a loaded artifact. It is never mutated after LoadModel returns and is
// safe for concurrent use.
type Model struct {
	version     string
	features    []string
	importances []FeatureImportance
	intercept   float64
	numeric     map[string]NumericTerm
	categorical map[string]map[string]float64
}

// LoadModel reads and validates a JSON artifact.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelUnavailableError{Path: path, Err: err}
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, &ModelUnavailableError{Path: path, Err: fmt.Errorf("decode artifact: %w", err)}
	}

	m, err := NewModel(artifact)
	if err != nil {
		return nil, &ModelUnavailableError{Path: path, Err: err}
	}
	return m, nil
}

// NewModel builds a Model from an in-memory artifact.
func NewModel(a Artifact) (*Model, error) {
	if len(a.Features) == 0 {
		return nil, errors.New("artifact declares no features")
	}
	if len(a.FeatureImportances) != len(a.Features) {
		return nil, fmt.Errorf("artifact has %d features but %d importances",
			len(a.Features), len(a.FeatureImportances))
	}

	known := make(map[string]bool, len(a.Features))
	importances := make([]FeatureImportance, len(a.Features))
	for i, f := range a.Features {
		if known[f] {
			return nil, fmt.Errorf("duplicate feature %q", f)
		}
		known[f] = true
		w := a.FeatureImportances[i]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid importance %v for feature %q", w, f)
		}
		importances[i] = FeatureImportance{Feature: f, Importance: w}
	}

	numeric := make(map[string]NumericTerm, len(a.Numeric))
	for f, term := range a.Numeric {
		if !known[f] {
			return nil, fmt.Errorf("numeric term for unknown feature %q", f)
		}
		if term.Scale == 0 {
			term.Scale = 1
		}
		numeric[f] = term
	}

	categorical := make(map[string]map[string]float64, len(a.Categorical))
	for f, weights := range a.Categorical {
		if !known[f] {
			return nil, fmt.Errorf("categorical term for unknown feature %q", f)
		}
		cp := make(map[string]float64, len(weights))
		for k, v := range weights {
			cp[k] = v
		}
		categorical[f] = cp
	}

	features := make([]string, len(a.Features))
	copy(features, a.Features)

	return &Model{
		version:     a.Version,
		features:    features,
		importances: importances,
		intercept:   a.Intercept,
		numeric:     numeric,
		categorical: categorical,
	}, nil
}

// Version identifies the artifact.
func (m *Model) Version() string { return m.version }

// FeatureNames returns the expected columns in training order.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.features))
	copy(out, m.features)
	return out
}

// FeatureImportances returns a copy of the importance vector in training order.
func (m *Model) FeatureImportances() []FeatureImportance {
	out := make([]FeatureImportance, len(m.importances))
	copy(out, m.importances)
	return out
}

// PredictProba returns the probability of the churn class.
func (m *Model) PredictProba(record Record) (float64, error) {
	if missing := record.Missing(m.features); len(missing) > 0 {
		return 0, &MissingFeatureError{Features: missing}
	}

	z := m.intercept
	for _, f := range m.features {
		if term, ok := m.numeric[f]; ok {
			x, ok := record.NumericValue(f)
			if !ok {
				return 0, fmt.Errorf("feature %q: %q is not numeric", f, record.StringValue(f))
			}
			z += term.Weight * (x - term.Mean) / term.Scale
			continue
		}
		if weights, ok := m.categorical[f]; ok {
			// unseen categories contribute nothing
			z += weights[record.StringValue(f)]
		}
	}
	return 1 / (1 + math.Exp(-z)), nil
}
