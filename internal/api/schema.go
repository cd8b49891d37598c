package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nadmax/ganttline/internal/task"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	createSchemaName = "schemas/task_create.json"
	updateSchemaName = "schemas/task_update.json"
)

// errInvalidJSON marks a body that is not JSON at all.
var errInvalidJSON = errors.New("invalid JSON")

// schemaError lists the body fields that break the request schema.
type schemaError struct {
	Fields []task.FieldError
}

func (e *schemaError) Error() string {
	return fmt.Sprintf("request does not match schema (%d problems)", len(e.Fields))
}

type schemas struct {
	create *jsonschema.Schema
	update *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()

	for _, name := range []string{createSchemaName, updateSchemaName} {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	create, err := compiler.Compile(createSchemaName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	update, err := compiler.Compile(updateSchemaName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &schemas{create: create, update: update}, nil
}

// validateBody checks that body is JSON accepted by validate, normally a
// compiled schema's Validate method.
func validateBody(validate func(any) error, body []byte) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}

	if err := validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		serr := &schemaError{}
		collectSchemaErrors(serr, ve)
		return serr
	}

	return nil
}

func collectSchemaErrors(result *schemaError, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Fields = append(result.Fields, task.FieldError{
			Field:   jsonPointerToField(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

func jsonPointerToField(ptr string) string {
	field := strings.TrimPrefix(ptr, "/")
	if field == "" {
		return "body"
	}
	return strings.ReplaceAll(field, "/", ".")
}
