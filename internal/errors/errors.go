// Package errors provides structured errors for route resolution failures.
//
// Every failure raised during a resolve pass is an *Error carrying a stable
// code, a category, the offending file where one exists, and a suggestion on
// how to fix the problem. Resolution is fail-fast: the first error aborts
// the pass before any registration is returned.
package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of resolution error.
type Category string

const (
	CategorySyntax     Category = "syntax"
	CategoryDiscovery  Category = "discovery"
	CategoryConflict   Category = "conflict"
	CategoryMiddleware Category = "middleware"
	CategoryFilter     Category = "filter"
	CategoryLoader     Category = "loader"
)

// Error is a structured resolution error with code, category, and suggestion.
type Error struct {
	// Code is a stable error identifier (e.g., "R001").
	Code string

	// Category is the failure class (syntax, discovery, conflict, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, where one helps.
	Detail string

	// File is the source file the error points at, if any.
	File string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithFile attaches the offending source file to the error.
func (e *Error) WithFile(file string) *Error {
	e.File = file
	return e
}

// WithDetail attaches a longer explanation to the error.
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion attaches a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap attaches an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code. The message can be overridden
// with a formatted string; pass an empty format to keep the registered one.
func New(code, format string, args ...any) *Error {
	tmpl, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
	}

	msg := tmpl.Message
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}

	return &Error{
		Code:       code,
		Category:   tmpl.Category,
		Message:    msg,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
	}
}

// CodeOf returns the code of err if it is (or wraps) an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
