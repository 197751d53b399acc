// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "Contract": {"type": "string", "enum": ["Month-to-month", "One year", "Two year"]},
    "tenure": {"type": ["integer", "string"]},
    "MonthlyCharges": {"type": "number", "minimum": 0}
  },
  "required": ["clientId"]
}`

func TestSchema_Validate(t *testing.T) {
	s := MustCompile(testSchema)

	t.Run("valid", func(t *testing.T) {
		res, err := s.Validate(map[string]interface{}{
			"clientId":       "c-1",
			"Contract":       "One year",
			"tenure":         "5",
			"MonthlyCharges": 70.5,
		})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	t.Run("invalid", func(t *testing.T) {
		res, err := s.Validate(map[string]interface{}{
			"Contract":       "Weekly",
			"MonthlyCharges": -1,
		})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.True(t, res.HasErrors("Contract"))
		assert.True(t, res.HasErrors("MonthlyCharges"))
		assert.True(t, res.HasErrors("clientId"))
		assert.False(t, res.HasErrors("tenure"))
		assert.Contains(t, res.Summary(), "Contract:")
	})
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	_, err = ValidateDocument(`not json`, map[string]interface{}{})
	assert.Error(t, err)
}
