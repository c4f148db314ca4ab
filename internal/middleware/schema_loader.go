// Package middleware provides HTTP middleware for the repair log API.
package middleware

import (
	"encoding/json"
	"fmt"
	"strings"

	contextutils "repairlog/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaLoader holds the compiled request schemas, keyed by name.
type SchemaLoader struct {
	schemas map[string]*gojsonschema.Schema
}

// requestSchemas are the JSON Schemas for every mutating request body the
// API accepts. They are compiled once at startup.
var requestSchemas = map[string]string{
	"StartCaptureRequest": `{
		"type": "object",
		"required": ["product_id", "outcome"],
		"additionalProperties": false,
		"properties": {
			"product_id": {"type": "integer", "minimum": 1},
			"outcome":    {"type": "string", "enum": ["R", "P", "N"]}
		}
	}`,
	"SelectionRequest": `{
		"type": "object",
		"required": ["ids"],
		"additionalProperties": false,
		"properties": {
			"ids":       {"type": "array", "items": {"type": "integer", "minimum": 1}},
			"photo_ids": {"type": "array", "items": {"type": "integer", "minimum": 1}}
		}
	}`,
	"ExtrasRequest": `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"notes":            {"type": "string"},
			"time_to_diagnose": {"type": "string", "pattern": "^([0-9]{1,3}:)?[0-5]?[0-9]:[0-5][0-9]$"},
			"time_to_repair":   {"type": "string", "pattern": "^([0-9]{1,3}:)?[0-5]?[0-9]:[0-5][0-9]$"}
		}
	}`,
	"CreatePhotoRequest": `{
		"type": "object",
		"required": ["product_id", "title"],
		"additionalProperties": false,
		"properties": {
			"product_id": {"type": "integer", "minimum": 1},
			"title":      {"type": "string", "minLength": 1},
			"feature_id": {"type": "integer", "minimum": 1},
			"image":      {"type": "string", "pattern": "^data:"},
			"image_url":  {"type": "string", "pattern": "^https?://"}
		},
		"anyOf": [
			{"required": ["image"]},
			{"required": ["image_url"]}
		]
	}`,
	"CreateCatalogEntryRequest": `{
		"type": "object",
		"required": ["product_id", "name"],
		"additionalProperties": false,
		"properties": {
			"product_id":  {"type": "integer", "minimum": 1},
			"name":        {"type": "string", "minLength": 1},
			"description": {"type": "string", "maxLength": 300},
			"feature_ids": {"type": "array", "items": {"type": "integer", "minimum": 1}}
		}
	}`,
	"CreateProductRequest": `{
		"type": "object",
		"required": ["name"],
		"additionalProperties": false,
		"properties": {
			"name":           {"type": "string", "minLength": 1},
			"barcode_serial": {"type": "string"}
		}
	}`,
	"UpdateCatalogEntryRequest": `{
		"type": "object",
		"required": ["name"],
		"additionalProperties": false,
		"properties": {
			"name":        {"type": "string", "minLength": 1},
			"description": {"type": "string", "maxLength": 300},
			"feature_ids": {"type": "array", "items": {"type": "integer", "minimum": 1}}
		}
	}`,
	"UpdateProductRequest": `{
		"type": "object",
		"required": ["name"],
		"additionalProperties": false,
		"properties": {
			"name":           {"type": "string", "minLength": 1},
			"barcode_serial": {"type": "string"}
		}
	}`,
	"CreateEventRequest": `{
		"type": "object",
		"required": ["product_id", "outcome"],
		"additionalProperties": false,
		"properties": {
			"product_id": {"type": "integer", "minimum": 1},
			"outcome":    {"type": "string", "enum": ["R", "P", "N"]}
		}
	}`,
	"CreateRepairResultRequest": `{
		"type": "object",
		"required": ["product_id", "type", "date"],
		"properties": {
			"product_id":          {"type": "integer", "minimum": 1},
			"type":                {"type": "string", "enum": ["R", "P", "N"]},
			"text":                {"type": "string"},
			"date":                {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
			"notes":               {"type": ["string", "null"]},
			"fault_diagnosed":     {"type": ["integer", "null"]},
			"time_to_diagnose":    {"type": ["string", "null"]},
			"time_to_repair":      {"type": ["string", "null"]},
			"fault_features":      {"type": "array", "items": {"type": "integer"}},
			"repair_action":       {"type": "array", "items": {"type": "integer"}},
			"reason_not_repaired": {"type": "array", "items": {"type": "integer"}},
			"photo_id":            {"type": "array", "items": {"type": "integer"}}
		}
	}`,
}

// NewSchemaLoader compiles the embedded request schemas.
func NewSchemaLoader() (*SchemaLoader, error) {
	loader := &SchemaLoader{schemas: make(map[string]*gojsonschema.Schema, len(requestSchemas))}
	for name, document := range requestSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to compile schema %s", name)
		}
		loader.schemas[name] = schema
	}
	return loader, nil
}

// ValidateBytes validates a raw JSON body against a named schema.
func (sl *SchemaLoader) ValidateBytes(body []byte, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "request body is not valid JSON")
	}
	if !result.Valid() {
		var validationErrors []string
		for _, validationErr := range result.Errors() {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput,
			"schema validation failed: %s", strings.Join(validationErrors, "; "))
	}
	return nil
}

// ValidateData validates an already-decoded value against a named schema.
func (sl *SchemaLoader) ValidateData(data interface{}, schemaName string) error {
	body, err := json.Marshal(data)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal data for validation")
	}
	return sl.ValidateBytes(body, schemaName)
}

// HasSchema reports whether a schema with the given name is registered.
func (sl *SchemaLoader) HasSchema(name string) bool {
	_, ok := sl.schemas[name]
	return ok
}
