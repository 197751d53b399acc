// internal/churn/record.go
package churn

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one client's feature row keyed by the model's training-time column names.
// Values are strings, integers or floats.
type Record map[string]interface{}

// FeatureImportance is a single entry of a model's feature_importances_ vector.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Missing returns the columns from expected that are absent from the record, sorted.
func (r Record) Missing(expected []string) []string {
	var missing []string
	seen := make(map[string]bool, len(expected))
	for _, col := range expected {
		if seen[col] {
			continue
		}
		seen[col] = true
		if _, ok := r[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// StringValue renders the observed value the way it is reported in a ChurnReason.
func (r Record) StringValue(feature string) string {
	return formatValue(r[feature])
}

// NumericValue parses the observed value as a float. Strings are trimmed first.
func (r Record) NumericValue(feature string) (float64, bool) {
	return numericValue(r[feature])
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func numericValue(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
