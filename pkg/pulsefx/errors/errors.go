// Package errors classifies failures produced while triggering effects.
//
// Gated outcomes (cooldown, session cap, disabled type, zero weight) are
// deliberately not errors: selection returns "none" as a value. The types
// here cover the failures that do surface: handler failures, breaker vetoes,
// and loader failures inside the resource cache.
package errors

import (
	"errors"
	"fmt"
)

// Category represents how a failure should be handled.
type Category int

const (
	// CategoryHandler indicates an effect handler threw.
	// Counts toward the component's circuit breaker.
	CategoryHandler Category = iota

	// CategoryBreakerOpen indicates a call was vetoed because the component
	// is disabled. A soft skip, never surfaced as a user-facing error.
	CategoryBreakerOpen

	// CategoryLoader indicates a cache loader failed.
	// Propagated to the caller; nothing is cached.
	CategoryLoader

	// CategoryInternal indicates an engine bug or unclassified failure.
	CategoryInternal
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryHandler:
		return "handler"
	case CategoryBreakerOpen:
		return "breaker_open"
	case CategoryLoader:
		return "loader"
	default:
		return "internal"
	}
}

// HandlerError wraps a failure from an effect handler with its component
// and operation context.
type HandlerError struct {
	// Component is the effect manager that failed.
	Component string

	// Op is the operation that was being attempted (e.g. "trigger").
	Op string

	// Err is the underlying error from the handler.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s: %s: %v", e.Component, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// BreakerOpenError indicates a call was short-circuited because the
// component is currently disabled.
type BreakerOpenError struct {
	// Component is the disabled effect manager.
	Component string
}

// Error implements the error interface.
func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("component %s is disabled", e.Component)
}

// LoaderError wraps a failure from a cache loader.
type LoaderError struct {
	// Key describes the cache key being loaded.
	Key string

	// Err is the underlying error from the loader.
	Err error
}

// Error implements the error interface.
func (e *LoaderError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LoaderError) Unwrap() error {
	return e.Err
}

// Categorize determines how a failure should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryInternal
	}

	var openErr *BreakerOpenError
	if errors.As(err, &openErr) {
		return CategoryBreakerOpen
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		return CategoryHandler
	}

	var loaderErr *LoaderError
	if errors.As(err, &loaderErr) {
		return CategoryLoader
	}

	return CategoryInternal
}

// IsBreakerOpen reports whether the error is a breaker veto.
func IsBreakerOpen(err error) bool {
	return Categorize(err) == CategoryBreakerOpen
}

// IsHandlerFailure reports whether the error came from an effect handler.
func IsHandlerFailure(err error) bool {
	return Categorize(err) == CategoryHandler
}
