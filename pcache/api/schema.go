package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// payloadRequestSchema describes the POST /payload body.
const payloadRequestSchema = `{
  "type": "object",
  "required": ["list_1", "list_2"],
  "properties": {
    "list_1": {"type": "array", "items": {"type": "string"}},
    "list_2": {"type": "array", "items": {"type": "string"}}
  }
}`

// ValidationError lists every schema violation of a request body.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Details, "; ")
}

// JSONValidator checks request bodies against a compiled JSON schema.
type JSONValidator struct {
	schema *gojsonschema.Schema
}

// NewJSONValidator compiles schema once for reuse across requests.
func NewJSONValidator(schema string) (*JSONValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &JSONValidator{schema: compiled}, nil
}

// Validate checks if data conforms to the schema. Malformed JSON and schema
// violations both come back as *ValidationError.
func (v *JSONValidator) Validate(data []byte) error {
	if !json.Valid(data) {
		return &ValidationError{Details: []string{"request body is not valid JSON"}}
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Details: []string{err.Error()}}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			details = append(details, re.String())
		}
		return &ValidationError{Details: details}
	}

	return nil
}
