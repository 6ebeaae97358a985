package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const createTodoSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"}
  }
}`

const updateTodoSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": "string"},
    "completed": {"type": "boolean"}
  }
}`

var (
	createSchema = jsonschema.MustCompileString("create-todo.json", createTodoSchema)
	updateSchema = jsonschema.MustCompileString("update-todo.json", updateTodoSchema)
)

// errBadRequest marks a request body that does not match its schema.
var errBadRequest = errors.New("bad request")

// decodeValidated checks body against schema and then decodes it into dst.
func decodeValidated(schema *jsonschema.Schema, body []byte, dst interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: request body is empty", errBadRequest)
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, schemaMessage(err))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// schemaMessage flattens a validation error to its leaf causes.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	collectSchemaErrors(ve, &msgs)
	if len(msgs) == 0 {
		return ve.Message
	}
	return strings.Join(msgs, "; ")
}

func collectSchemaErrors(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, msgs)
	}
}
