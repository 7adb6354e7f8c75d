package gather

import "fmt"

// SchemaError reports malformed or unexpected-shape input: a wrong header
// name, a payload that is not a list of records, or a file without the
// recognized suffix. It is fatal to the stage or unit that detected it and
// is never coerced into a partial result.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error: %s", e.Path, e.Reason)
}

// IntegrityError reports a violated structural invariant: duplicate values
// in what must be a unique key set, or two specimen artifacts resolving to
// the same label.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: integrity error: %s", e.Path, e.Reason)
}

func schemaErrorf(path, format string, args ...interface{}) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func integrityErrorf(path, format string, args ...interface{}) error {
	return &IntegrityError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
