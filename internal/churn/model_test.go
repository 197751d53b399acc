// internal/churn/model_test.go
package churn

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact() Artifact {
	return Artifact{
		Version:            "test-1",
		Features:           []string{"Contract", "tenure", "MonthlyCharges", "gender", "Partner"},
		FeatureImportances: []float64{0.30, 0.25, 0.20, 0.05, 0.01},
		Intercept:          -0.5,
		Numeric: map[string]NumericTerm{
			"tenure":         {Mean: 32, Scale: 24, Weight: -0.9},
			"MonthlyCharges": {Mean: 65, Scale: 30, Weight: 0.6},
		},
		Categorical: map[string]map[string]float64{
			"Contract": {"Month-to-month": 1.2, "One year": -0.4, "Two year": -1.5},
		},
	}
}

func writeArtifact(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadModel_Success(t *testing.T) {
	path := writeArtifact(t, testArtifact())

	m, err := LoadModel(path)
	require.NoError(t, err)

	assert.Equal(t, "test-1", m.Version())
	assert.Equal(t, []string{"Contract", "tenure", "MonthlyCharges", "gender", "Partner"}, m.FeatureNames())
	assert.Equal(t, sampleImportances(), m.FeatureImportances())
}

func TestLoadModel_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "file missing",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.json")
			},
		},
		{
			name: "not json",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "model.json")
				require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o600))
				return path
			},
		},
		{
			name: "importance length mismatch",
			setup: func(t *testing.T) string {
				a := testArtifact()
				a.FeatureImportances = a.FeatureImportances[:2]
				return writeArtifact(t, a)
			},
		},
		{
			name: "negative importance",
			setup: func(t *testing.T) string {
				a := testArtifact()
				a.FeatureImportances[1] = -0.1
				return writeArtifact(t, a)
			},
		},
		{
			name: "numeric term for unknown feature",
			setup: func(t *testing.T) string {
				a := testArtifact()
				a.Numeric["SeniorCitizen"] = NumericTerm{Scale: 1, Weight: 1}
				return writeArtifact(t, a)
			},
		},
		{
			name: "no features",
			setup: func(t *testing.T) string {
				return writeArtifact(t, Artifact{Version: "empty"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LoadModel(tt.setup(t))
			assert.Nil(t, m)

			var unavailable *ModelUnavailableError
			require.True(t, errors.As(err, &unavailable))
			assert.NotEmpty(t, unavailable.Path)
		})
	}
}

func TestModel_PredictProba(t *testing.T) {
	m, err := NewModel(testArtifact())
	require.NoError(t, err)

	risky, err := m.PredictProba(sampleRecord())
	require.NoError(t, err)

	loyal := sampleRecord()
	loyal["Contract"] = "Two year"
	loyal["tenure"] = 60
	loyal["MonthlyCharges"] = 20.0
	safe, err := m.PredictProba(loyal)
	require.NoError(t, err)

	assert.Greater(t, risky, 0.5)
	assert.Less(t, safe, 0.5)
	for _, p := range []float64{risky, safe} {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestModel_PredictProba_UnknownCategoryIsIgnored(t *testing.T) {
	m, err := NewModel(testArtifact())
	require.NoError(t, err)

	base := sampleRecord()
	base["Contract"] = "Lifetime"
	p, err := m.PredictProba(base)
	require.NoError(t, err)

	withoutContract := testArtifact()
	delete(withoutContract.Categorical, "Contract")
	m2, err := NewModel(withoutContract)
	require.NoError(t, err)
	p2, err := m2.PredictProba(base)
	require.NoError(t, err)

	assert.InDelta(t, p2, p, 1e-12)
}

func TestModel_PredictProba_Errors(t *testing.T) {
	m, err := NewModel(testArtifact())
	require.NoError(t, err)

	record := sampleRecord()
	delete(record, "gender")
	_, err = m.PredictProba(record)
	var missingErr *MissingFeatureError
	assert.True(t, errors.As(err, &missingErr))

	record = sampleRecord()
	record["tenure"] = "twelve"
	_, err = m.PredictProba(record)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tenure")
}

func TestModel_AccessorsReturnCopies(t *testing.T) {
	m, err := NewModel(testArtifact())
	require.NoError(t, err)

	imp := m.FeatureImportances()
	imp[0].Importance = 99
	names := m.FeatureNames()
	names[0] = "changed"

	assert.Equal(t, 0.30, m.FeatureImportances()[0].Importance)
	assert.Equal(t, "Contract", m.FeatureNames()[0])
}

func TestModel_ConcurrentUse(t *testing.T) {
	m, err := NewModel(testArtifact())
	require.NoError(t, err)
	engine := NewEngine(m)

	want, err := engine.Predict(sampleRecord())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := engine.Predict(sampleRecord())
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
