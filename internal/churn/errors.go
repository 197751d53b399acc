// internal/churn/errors.go
package churn

import (
	"fmt"
	"strings"
)

// MissingFeatureError reports that the record is not aligned with the model's columns.
type MissingFeatureError struct {
	Features []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature columns: %s", strings.Join(e.Features, ", "))
}

// ModelUnavailableError reports that the model artifact could not be loaded.
type ModelUnavailableError struct {
	Path string
	Err  error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model artifact %q unavailable: %v", e.Path, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}
