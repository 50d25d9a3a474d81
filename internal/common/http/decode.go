// internal/common/http/decode.go
package http

import (
	"encoding/json"

	apperrors "stock-backoffice/internal/common/errors"
)

// Decode unmarshals resp into out. It reports false, with no error, for a
// nil response.
func Decode[T any](resp *Response, endpoint string, out *T) (bool, error) {
	if resp == nil || len(resp.Body) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return false, apperrors.NewMalformedResponseError(endpoint, err.Error())
	}
	return true, nil
}

// Validator checks a response body against a named schema.
type Validator interface {
	Validate(schema, endpoint string, body []byte) error
}

// DecodeChecked validates resp against schema, then decodes it like Decode.
// A nil validator skips the check.
func DecodeChecked[T any](v Validator, schema string, resp *Response, endpoint string, out *T) (bool, error) {
	if resp == nil || len(resp.Body) == 0 {
		return false, nil
	}
	if v != nil {
		if err := v.Validate(schema, endpoint, resp.Body); err != nil {
			return false, err
		}
	}
	return Decode(resp, endpoint, out)
}
