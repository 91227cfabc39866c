package nlparse

import "fmt"

// ParseError represents an error from the underlying date parser
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("nlparse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("nlparse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
