package extract

import "fmt"

// ExtractionError reports a rule that could not derive a value from a
// declaration. File and Line point at the offending source construct.
type ExtractionError struct {
	Message string
	File    string
	Line    int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s at %s:%d", e.Message, e.File, e.Line)
}

func newError(file string, line int, format string, args ...any) *ExtractionError {
	return &ExtractionError{
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
	}
}
