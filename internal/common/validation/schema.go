// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

// Request schemas for the public API. Platform enums here must stay in
// sync with models.ParsePlatform.
const (
	// AutoApplyRequestSchema validates the batch auto-apply payload.
	AutoApplyRequestSchema = `{
		"type": "object",
		"required": ["job_ids", "resume_data", "user_credentials"],
		"properties": {
			"job_ids": {
				"type": "array",
				"minItems": 1,
				"uniqueItems": true,
				"items": {"type": "string", "minLength": 1}
			},
			"resume_data": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"email": {"type": "string"},
					"skills": {"type": "array", "items": {"type": "string"}},
					"keywords": {"type": "array", "items": {"type": "string"}}
				}
			},
			"user_credentials": {
				"type": "object",
				"required": ["email", "password", "platform"],
				"properties": {
					"email": {"type": "string", "minLength": 3},
					"password": {"type": "string", "minLength": 1},
					"platform": {
						"type": "string",
						"enum": ["linkedin", "indeed", "glassdoor", "ziprecruiter"]
					}
				}
			},
			"filters": {
				"type": "object",
				"properties": {
					"location": {"type": "string"},
					"experience_level": {"type": "string"},
					"allow_moderate_matches": {"type": "boolean"}
				}
			},
			"job_postings": {"type": "array"}
		}
	}`

	// MatchRequestSchema validates the scoring-only payload.
	MatchRequestSchema = `{
		"type": "object",
		"required": ["resume_data", "job_posting"],
		"properties": {
			"resume_data": {
				"type": "object",
				"required": ["name"]
			},
			"job_posting": {
				"type": "object",
				"required": ["id", "title"]
			}
		}
	}`

	// CredentialRequestSchema validates validate/reset payloads.
	CredentialRequestSchema = `{
		"type": "object",
		"required": ["email", "password", "platform"],
		"properties": {
			"email": {"type": "string", "minLength": 3},
			"password": {"type": "string", "minLength": 1},
			"platform": {
				"type": "string",
				"enum": ["linkedin", "indeed", "glassdoor", "ziprecruiter"]
			},
			"reset_token": {"type": "string"}
		}
	}`
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateJSON checks a raw request body against a schema.
func ValidateJSON(body []byte, schema string) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	emailPattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailPattern.MatchString(email)
}

// ValidateURL validates URL format
func ValidateURL(url string) bool {
	urlPattern := regexp.MustCompile(`^(https?)://[^\s/$.?#].[^\s]*$`)
	return urlPattern.MatchString(url)
}
