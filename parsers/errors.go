package parsers

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when a path reference does not resolve to a usable file path.
	ErrInvalidPath = errors.New("parsers: invalid path")
	// ErrFileRead is returned when the source file cannot be read or decoded as text.
	ErrFileRead = errors.New("parsers: file read error")
	// ErrEmptyInput is returned when the source text has no header line.
	ErrEmptyInput = errors.New("parsers: empty input")
)

// ParserError is the single error type surfaced by TableParser.
// Kind is one of the Err* sentinels, Message is meant for humans and Err holds
// the underlying cause, if any.
type ParserError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ParserError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause so errors.Is/As reach through to it.
func (e *ParserError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ParserError) Is(target error) bool {
	if e == nil {
		return false
	}
	return e.Kind == target
}

func newParserError(kind error, message string, cause error) *ParserError {
	return &ParserError{Kind: kind, Message: message, Err: cause}
}
