package services

import (
	"errors"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

const userSchemaSrc = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"}
	}
}`

const todosSchemaSrc = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title", "completed"],
		"properties": {
			"title": {"type": "string"},
			"completed": {"type": "boolean"}
		}
	}
}`

var (
	userSchema  = mustSchema("user.json", userSchemaSrc)
	todosSchema = mustSchema("todos.json", todosSchemaSrc)
)

// jsonSchema скомпилированная схема ответа API.
type jsonSchema struct {
	schema *jsonschema.Schema
}

func mustSchema(name, src string) *jsonSchema {
	return &jsonSchema{schema: jsonschema.MustCompileString(name, src)}
}

// validate проверяет документ и возвращает первую конкретную ошибку схемы.
func (s *jsonSchema) validate(doc any, resource string) error {
	err := s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &models.MalformedResponseError{Resource: resource, Reason: err.Error()}
	}

	leaf := firstLeaf(ve)
	path := leaf.InstanceLocation
	if path == "" {
		path = "/"
	}
	return &models.MalformedResponseError{Resource: resource, Path: path, Reason: leaf.Message}
}

// firstLeaf спускается по первым причинам до конкретной ошибки.
func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
