// internal/churn/engine.go
package churn

// Engine scores and explains client records against one classifier.
// It holds no mutable state; share a single Engine across goroutines.
type Engine struct {
	classifier Classifier
	rules      RuleTable
	version    string
}

type featureLister interface {
	FeatureNames() []string
}

type versioned interface {
	Version() string
}

// NewEngine wraps a classifier with the default narrative rules.
func NewEngine(classifier Classifier) *Engine {
	e := &Engine{
		classifier: classifier,
		rules:      DefaultRules(),
	}
	if v, ok := classifier.(versioned); ok {
		e.version = v.Version()
	}
	return e
}

// ModelVersion is the artifact version, empty when the classifier does not report one.
func (e *Engine) ModelVersion() string {
	return e.version
}

// Predict checks column alignment, scores the record and explains the score.
func (e *Engine) Predict(record Record) (*Prediction, error) {
	importances := e.classifier.FeatureImportances()

	expected := make([]string, 0, len(importances))
	if fl, ok := e.classifier.(featureLister); ok {
		expected = fl.FeatureNames()
	} else {
		for _, fi := range importances {
			expected = append(expected, fi.Feature)
		}
	}
	if missing := record.Missing(expected); len(missing) > 0 {
		return nil, &MissingFeatureError{Features: missing}
	}

	probability, err := e.classifier.PredictProba(record)
	if err != nil {
		return nil, err
	}
	return explain(e.rules, record, probability, importances)
}
