package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// FieldError is a single structural violation, located by a JSON-ish
// path into the document (e.g. "conversation_flow[2].options").
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result is the outcome of validating one document. Errors preserve
// check order. A Result is informational: turning it into an error is
// the caller's decision via Err().
type Result struct {
	OK     bool         `json:"ok"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Err converts a failed Result into an error wrapping
// domain.ErrSchemaInvalid. Returns nil for a passing Result.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", domain.ErrSchemaInvalid, strings.Join(msgs, "; "))
}

func (r *Result) add(path, format string, args ...any) {
	r.OK = false
	r.Errors = append(r.Errors, FieldError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}
