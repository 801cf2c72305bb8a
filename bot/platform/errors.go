package platform

import (
	"errors"
	"fmt"
)

// Common platform errors that can be checked with errors.Is.
var (
	// ErrUnknownPlatform is returned when a name resolves to no known platform.
	ErrUnknownPlatform = errors.New("platform: unknown platform")

	// ErrNotConvertible is returned when a platform is recognized but the
	// conversion service does not accept it.
	ErrNotConvertible = errors.New("platform: conversion not supported")
)

// PlatformError wraps an error with the platform name and the operation that
// failed, while keeping the underlying sentinel reachable through errors.Is
// and errors.As.
type PlatformError struct {
	// Platform is the name or alias as the user wrote it.
	Platform string

	// Op is the operation that failed (e.g. "resolve", "convert").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("%s: %q: %v", e.Op, e.Platform, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewUnknownPlatformError creates a PlatformError for an unrecognized name.
func NewUnknownPlatformError(op, name string) error {
	return &PlatformError{
		Platform: name,
		Op:       op,
		Err:      ErrUnknownPlatform,
	}
}

// NewNotConvertibleError creates a PlatformError for a platform the
// conversion service does not accept.
func NewNotConvertibleError(op, name string) error {
	return &PlatformError{
		Platform: name,
		Op:       op,
		Err:      ErrNotConvertible,
	}
}
