package payload

import (
	"errors"
	"strings"
)

// ErrMalformedPayload marks a report that cannot be processed. It is terminal
// for that report and is never retried.
var ErrMalformedPayload = errors.New("malformed payload")

// FieldError describes a single invalid field in a report.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type malformedError struct {
	fields []FieldError
}

func (e *malformedError) Error() string {
	parts := make([]string, len(e.fields))
	for i, f := range e.fields {
		parts[i] = f.Field + " " + f.Message
	}
	return ErrMalformedPayload.Error() + ": " + strings.Join(parts, "; ")
}

func (e *malformedError) Unwrap() error        { return ErrMalformedPayload }
func (e *malformedError) Fields() []FieldError { return e.fields }

func newMalformed(fields ...FieldError) error {
	return &malformedError{fields: fields}
}

// FieldErrors extracts field errors from a malformed payload error.
func FieldErrors(err error) []FieldError {
	var me *malformedError
	if errors.As(err, &me) {
		return me.Fields()
	}
	return nil
}
