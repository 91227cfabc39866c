package extraction

import "fmt"

// JSONLDError represents a malformed JSON-LD block. Callers log and skip it.
type JSONLDError struct {
	Message string
	Cause   error
}

func (e *JSONLDError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *JSONLDError) Unwrap() error {
	return e.Cause
}
