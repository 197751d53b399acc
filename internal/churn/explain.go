// internal/churn/explain.go
package churn

import (
	"math"
	"sort"
)

const (
	// MaxReasons bounds the number of reasons attached to a prediction.
	MaxReasons = 5
	// MinImportance is exclusive: a weight must be strictly greater to be reported.
	MinImportance = 0.01

	highRiskThreshold   = 0.7
	mediumRiskThreshold = 0.3
)

// RiskLevel is the display tier of a churn probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Faible"
	RiskMedium RiskLevel = "Moyen"
	RiskHigh   RiskLevel = "Élevé"
)

// Reason explains one contributing feature.
type Reason struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Value      string  `json:"value"`
	Impact     string  `json:"impact"`
}

// Prediction is the explained output for one client.
type Prediction struct {
	ChurnProbability float64   `json:"churn_probability"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Reasons          []Reason  `json:"reasons"`
}

// RiskLevelFor buckets a probability. Both comparisons are strict.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability > highRiskThreshold:
		return RiskHigh
	case probability > mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Explain builds a Prediction from a classifier's outputs using the default rule table.
func Explain(record Record, probability float64, importances []FeatureImportance) (*Prediction, error) {
	return explain(DefaultRules(), record, probability, importances)
}

func explain(rules RuleTable, record Record, probability float64, importances []FeatureImportance) (*Prediction, error) {
	expected := make([]string, len(importances))
	for i, fi := range importances {
		expected[i] = fi.Feature
	}
	if missing := record.Missing(expected); len(missing) > 0 {
		return nil, &MissingFeatureError{Features: missing}
	}

	ranked := make([]FeatureImportance, len(importances))
	copy(ranked, importances)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	if len(ranked) > MaxReasons {
		ranked = ranked[:MaxReasons]
	}

	reasons := make([]Reason, 0, len(ranked))
	for _, fi := range ranked {
		if !(fi.Importance > MinImportance) {
			continue
		}
		reasons = append(reasons, Reason{
			Feature:    fi.Feature,
			Importance: fi.Importance,
			Value:      record.StringValue(fi.Feature),
			Impact:     rules.Impact(record, fi.Feature),
		})
	}

	p := clampProbability(probability)
	return &Prediction{
		ChurnProbability: p,
		RiskLevel:        RiskLevelFor(p),
		Reasons:          reasons,
	}, nil
}

func clampProbability(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
