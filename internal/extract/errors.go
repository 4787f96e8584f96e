// Package extract turns raw language-model output into validated CRM
// records. It contains the structured-output validator, the typed failures
// it can produce, and the prompt templates used by the pipelines.
package extract

import "fmt"

// ParseError indicates that the model output, after fence stripping and
// object extraction, was not well-formed JSON. Raw carries the original
// model output for diagnostics and retry prompts.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model output is not valid JSON: %v", e.Err)
}

// Unwrap exposes the underlying json error for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError indicates well-formed JSON whose field values violate the
// record schema. Field names the first offending field and Rule states the
// violated constraint in user-presentable form.
type SchemaError struct {
	Field string
	Rule  string
	Raw   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Rule)
}
