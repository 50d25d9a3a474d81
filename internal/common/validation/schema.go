// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"stock-backoffice/internal/common/errors"
)

// Schema names of the backend responses the services check.
const (
	SchemaReferenceList  = "reference-list"
	SchemaStatusOptions  = "status-options"
	SchemaParticipants   = "participants"
	SchemaUsers          = "users"
	SchemaListing        = "listing"
	SchemaAggregate      = "aggregate"
	SchemaFeed           = "feed"
	SchemaUnreadCount    = "unread-count"
	SchemaEditableRows   = "editable-rows"
	SchemaMassEditResult = "mass-edit-result"
	SchemaPriceImport    = "price-import"
	SchemaPermissions    = "permissions"
)

var builtinSchemas = map[string]string{
	SchemaReferenceList: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["uid", "name"],
			"properties": {
				"uid": {"type": ["string", "integer"]},
				"name": {"type": ["string", "null"]},
				"code": {"type": ["string", "null"]},
				"has_children": {}
			}
		}
	}`,
	SchemaStatusOptions: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["code", "name"],
			"properties": {
				"code": {"type": "string"},
				"name": {"type": "string"},
				"standard": {"type": ["boolean", "null"]}
			}
		}
	}`,
	SchemaParticipants: `{
		"type": "array",
		"items": {"type": "object"}
	}`,
	SchemaUsers: `{
		"type": "object",
		"properties": {
			"users": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["uid"],
					"properties": {
						"uid": {"type": "string"},
						"employeeDisplay": {"type": ["string", "null"]}
					}
				}
			}
		}
	}`,
	SchemaListing: `{
		"type": "object",
		"required": ["items", "count"],
		"properties": {
			"items": {"type": ["array", "null"], "items": {"type": "object"}},
			"count": {"type": "integer", "minimum": 0}
		}
	}`,
	SchemaAggregate: `{
		"type": "object",
		"required": ["tabs"],
		"properties": {
			"tabs": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["tab_code", "tab_name", "count"],
					"properties": {
						"tab_code": {"type": "string"},
						"tab_name": {"type": "string"},
						"count": {"type": "integer", "minimum": 0}
					}
				}
			}
		}
	}`,
	SchemaFeed: `{
		"type": "object",
		"properties": {
			"count": {"type": ["integer", "null"]},
			"items": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"required": ["uid"],
					"properties": {
						"uid": {"type": "string"},
						"event_type": {"type": ["string", "integer", "null"]},
						"read": {"type": ["boolean", "null"]}
					}
				}
			}
		}
	}`,
	SchemaUnreadCount: `{"type": "integer", "minimum": 0}`,
	SchemaEditableRows: `{
		"type": "object",
		"properties": {
			"rows": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"required": ["code"],
					"properties": {
						"code": {"type": "string"},
						"value": {"type": ["string", "null"]},
						"massChange": {"type": ["boolean", "null"]}
					}
				}
			}
		}
	}`,
	SchemaMassEditResult: `{
		"type": "object",
		"properties": {
			"all": {"type": "integer"},
			"successed": {"type": "integer"},
			"failed": {"type": "integer"},
			"report": {}
		}
	}`,
	SchemaPriceImport: `{
		"type": "object",
		"properties": {
			"all": {"type": "integer", "minimum": 0},
			"processed": {"type": "integer", "minimum": 0},
			"successed": {"type": "integer", "minimum": 0},
			"failed": {"type": "integer", "minimum": 0},
			"warning": {"type": "integer", "minimum": 0},
			"report": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"required": ["message"],
					"properties": {
						"messageType": {"enum": ["ERROR", "ALARM"]},
						"message": {"type": "string"},
						"items": {"type": ["array", "null"]}
					}
				}
			}
		}
	}`,
	SchemaPermissions: `{
		"type": "object",
		"required": ["user", "permissions"],
		"properties": {
			"user": {
				"type": "object",
				"properties": {
					"user_uid": {"type": "string"},
					"role": {"type": "string"}
				}
			},
			"permissions": {
				"type": "array",
				"items": {"type": "string"}
			}
		}
	}`,
}

// ValidationResult is the outcome of checking one document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}

// SchemaValidator checks response bodies against compiled JSON schemas.
type SchemaValidator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator compiles the built-in response schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema)}
	for name, raw := range builtinSchemas {
		if err := v.Register(name, raw); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register compiles schemaJSON under name, replacing any previous schema.
func (v *SchemaValidator) Register(name, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.schemas[name] = schema
	v.mu.Unlock()
	return nil
}

// Check validates body against the named schema.
func (v *SchemaValidator) Check(name string, body []byte) (*ValidationResult, error) {
	v.mu.RLock()
	schema, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown schema %s", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}},
		}, nil
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}

// Validate returns a MALFORMED_RESPONSE error when body from endpoint does
// not match the named schema. A nil validator accepts everything.
func (v *SchemaValidator) Validate(name, endpoint string, body []byte) error {
	if v == nil {
		return nil
	}
	result, err := v.Check(name, body)
	if err != nil {
		return errors.NewMalformedResponseError(endpoint, err.Error())
	}
	if !result.Valid {
		return errors.NewMalformedResponseError(endpoint, strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
