// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	icp "churn-workers/internal/workers/churn/index-churn-prediction"
	pc "churn-workers/internal/workers/churn/predict-churn"
	sra "churn-workers/internal/workers/churn/send-retention-alert"
)

const shippedRegistry = "../../configs/activity-registry.json"

func TestShippedRegistry(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistry)
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{pc.TaskType, icp.TaskType, sra.TaskType} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, "task type %s not registered", taskType)
		assert.Equal(t, StatusCompleted, a.ImplementationStatus)
	}
}

func TestActivity_ValidateInput(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistry)
	require.NoError(t, err)
	predict, ok := reg.Find(pc.TaskType)
	require.True(t, ok)

	res, err := predict.ValidateInput(map[string]interface{}{"clientId": "client-001"})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = predict.ValidateInput(map[string]interface{}{"other": true})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidate_Rejects(t *testing.T) {
	base := func() Activity {
		return Activity{ID: "a", TaskType: "a", Timeout: "5s", ErrorCodes: []string{"INDEXING_FAILED"}}
	}

	tests := []struct {
		name   string
		mutate func(r *ActivityRegistry)
		want   string
	}{
		{"duplicate task type", func(r *ActivityRegistry) {
			b := base()
			b.ID = "b"
			r.Activities = append(r.Activities, b)
		}, "duplicate task type"},
		{"bad timeout", func(r *ActivityRegistry) { r.Activities[0].Timeout = "soon" }, "timeout"},
		{"unknown error code", func(r *ActivityRegistry) { r.Activities[0].ErrorCodes = []string{"PARSE_ERROR"} }, "unknown error code"},
		{"bad schema", func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 12}
		}, "inputSchema"},
		{"missing task type", func(r *ActivityRegistry) { r.Activities[0].TaskType = "" }, "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{base()}}
			tt.mutate(reg)
			err := reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{{ID: "a", TaskType: "a", Timeout: "1s"}}}

	require.NoError(t, SaveRegistry(reg, path))
	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Activities[0].ID)
	assert.NotEmpty(t, loaded.LastUpdated)
}
