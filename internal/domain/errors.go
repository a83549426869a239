package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContext is returned when retrieval finds nothing to answer from.
	ErrNoContext = errors.New("no context available")
	// ErrInvalidArgument is returned for empty URLs or questions.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDimensionMismatch is returned when a vector does not fit the store.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// FetchError reports a failed page download or an unusable page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LLMCallError reports a remote model failure or an empty completion.
type LLMCallError struct {
	Op  string
	Err error
}

func (e *LLMCallError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *LLMCallError) Unwrap() error { return e.Err }

// ErrEmptyCompletion is wrapped by LLMCallError when the model returns nothing.
var ErrEmptyCompletion = errors.New("empty completion")
