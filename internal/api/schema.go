package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// toggleSchemaJSON validates progress writes before they reach the ledger.
// The difficulty field is optional; when present it must be one of the
// catalog's three values (its agreement with the catalog is checked later).
const toggleSchemaJSON = `{
	"type": "object",
	"required": ["user", "questionId", "solved"],
	"additionalProperties": false,
	"properties": {
		"user":       {"type": "string", "minLength": 1},
		"questionId": {"type": "string", "minLength": 1},
		"difficulty": {"type": "string", "enum": ["Easy", "Medium", "Hard"]},
		"solved":     {"type": "boolean"}
	}
}`

var toggleSchema = mustSchema(toggleSchemaJSON)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return schema
}

// decodeToggleRequest validates the raw body against the toggle schema and
// decodes it. A non-empty second return value is the client-facing
// validation message.
func decodeToggleRequest(body []byte) (toggleRequest, string) {
	result, err := toggleSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return toggleRequest{}, "request body must be valid JSON"
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return toggleRequest{}, strings.Join(msgs, "; ")
	}

	var req toggleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return toggleRequest{}, "request body must be valid JSON"
	}
	return req, ""
}
