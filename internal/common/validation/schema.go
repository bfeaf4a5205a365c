package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins all messages; it is only meaningful when Valid is false.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate checks document against a JSON schema given as a Go value or a
// JSON string.
func Validate(schema interface{}, document interface{}) (*ValidationResult, error) {
	var schemaLoader gojsonschema.JSONLoader
	if s, ok := schema.(string); ok {
		schemaLoader = gojsonschema.NewStringLoader(s)
	} else {
		schemaLoader = gojsonschema.NewGoLoader(schema)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// ValidateColumns reports which of required are missing from columns.
func ValidateColumns(columns []string, required ...string) (*ValidationResult, error) {
	checks := make([]interface{}, len(required))
	for i, name := range required {
		checks[i] = map[string]interface{}{
			"contains": map[string]interface{}{"const": name},
		}
	}

	columnsSchema := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}
	if len(checks) > 0 {
		columnsSchema["allOf"] = checks
	}

	schema := map[string]interface{}{
		"type":       "object",
		"required":   []interface{}{"columns"},
		"properties": map[string]interface{}{"columns": columnsSchema},
	}

	if columns == nil {
		columns = []string{}
	}
	return Validate(schema, map[string]interface{}{"columns": columns})
}
