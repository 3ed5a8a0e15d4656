// Package validation checks completed submission payloads before they
// reach the store.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// applicationSchema mirrors what the intake form is allowed to produce.
// The CV reference is optional (the candidate may skip it).
var applicationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"user_id":    map[string]interface{}{"type": "integer"},
		"name":       map[string]interface{}{"type": "string", "minLength": 5},
		"phone":      map[string]interface{}{"type": "string", "minLength": 5},
		"position":   map[string]interface{}{"type": "string", "minLength": 1},
		"experience": map[string]interface{}{"type": "string", "minLength": 1},
		"cv_file_id": map[string]interface{}{"type": "string"},
		"cv_type":    map[string]interface{}{"type": "string", "enum": []string{"doc", "photo", ""}},
	},
	"required": []string{"user_id", "name", "phone", "position", "experience"},
}

// ValidateApplication validates a submission payload against the intake
// schema and returns a descriptive error listing every violation.
func ValidateApplication(payload map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(applicationSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("invalid application payload: %s", strings.Join(details, "; "))
}
