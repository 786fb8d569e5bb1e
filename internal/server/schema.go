package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const executeRequestSchema = `{
  "type": "object",
  "required": ["source", "language"],
  "properties": {
    "source":   {"type": "string"},
    "language": {"type": "string", "minLength": 1},
    "stdin":    {"type": "string"}
  },
  "additionalProperties": false
}`

var executeSchema = mustSchema(executeRequestSchema)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("server: invalid schema: %v", err))
	}
	return schema
}

// validateExecuteRequest checks a raw /api/execute body and reports every
// violation in one error.
func validateExecuteRequest(body []byte) error {
	result, err := executeSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}
