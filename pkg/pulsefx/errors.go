package pulsefx

import "errors"

var (
	// ErrEngineClosed indicates an operation on a closed engine.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrUnknownEventType indicates a record attempt for a type that is not
	// in the catalog.
	ErrUnknownEventType = errors.New("unknown event type")
)
