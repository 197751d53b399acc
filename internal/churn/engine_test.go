// internal/churn/engine_test.go
package churn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClassifier is a fixture classifier with canned outputs.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) PredictProba(record Record) (float64, error) {
	args := m.Called(record)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockClassifier) FeatureImportances() []FeatureImportance {
	args := m.Called()
	return args.Get(0).([]FeatureImportance)
}

func TestEngine_Predict(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("FeatureImportances").Return(sampleImportances())
	classifier.On("PredictProba", mock.Anything).Return(0.5, nil)

	engine := NewEngine(classifier)
	pred, err := engine.Predict(sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, 0.5, pred.ChurnProbability)
	assert.Equal(t, RiskMedium, pred.RiskLevel)
	assert.Len(t, pred.Reasons, 4)
	assert.Empty(t, engine.ModelVersion())
	classifier.AssertExpectations(t)
}

func TestEngine_Predict_MissingFeatureSkipsScoring(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("FeatureImportances").Return(sampleImportances())

	record := sampleRecord()
	delete(record, "MonthlyCharges")

	engine := NewEngine(classifier)
	pred, err := engine.Predict(record)

	assert.Nil(t, pred)
	var missingErr *MissingFeatureError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{"MonthlyCharges"}, missingErr.Features)
	classifier.AssertNotCalled(t, "PredictProba", mock.Anything)
}

func TestEngine_Predict_ClassifierError(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("FeatureImportances").Return(sampleImportances())
	classifier.On("PredictProba", mock.Anything).Return(0.0, errors.New("boom"))

	pred, err := NewEngine(classifier).Predict(sampleRecord())

	assert.Nil(t, pred)
	assert.EqualError(t, err, "boom")
}

func TestEngine_Predict_UsesModelFeatureList(t *testing.T) {
	a := testArtifact()
	a.Features = append(a.Features, "SeniorCitizen")
	a.FeatureImportances = append(a.FeatureImportances, 0)
	m, err := NewModel(a)
	require.NoError(t, err)

	engine := NewEngine(m)
	assert.Equal(t, "test-1", engine.ModelVersion())

	_, err = engine.Predict(sampleRecord())
	var missingErr *MissingFeatureError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{"SeniorCitizen"}, missingErr.Features)

	record := sampleRecord()
	record["SeniorCitizen"] = 0
	pred, err := engine.Predict(record)
	require.NoError(t, err)
	assert.Len(t, pred.Reasons, 4)
}
