// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

func SaveRegistry(reg *ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks ids and task types are unique, schemas compile, timeouts
// parse and every declared error code is one the workers can raise.
func (r *ActivityRegistry) Validate() error {
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.DisplayName)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity id %s", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type %s", a.TaskType)
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true

		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s: timeout: %w", a.ID, err)
		}
		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if _, err := a.compile(schema); err != nil {
				return fmt.Errorf("activity %s: %s: %w", a.ID, name, err)
			}
		}
		for _, code := range a.ErrorCodes {
			if _, ok := errors.BPMNErrorMapping[errors.ErrorCode(code)]; !ok {
				return fmt.Errorf("activity %s: unknown error code %s", a.ID, code)
			}
		}
	}
	return nil
}

// ValidateInput checks job variables against the activity's input schema.
func (a *Activity) ValidateInput(vars map[string]interface{}) (*validation.ValidationResult, error) {
	schema, err := a.compile(a.InputSchema)
	if err != nil {
		return nil, err
	}
	return schema.Validate(vars)
}

func (a *Activity) compile(schema map[string]interface{}) (*validation.Schema, error) {
	if len(schema) == 0 {
		schema = map[string]interface{}{"type": "object"}
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return validation.Compile(string(data))
}
