package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCode means the code does not look like a booking code at all.
	ErrInvalidCode = errors.New("convert: invalid code format")
	// ErrConversionFailed means the conversion service rejected the request.
	ErrConversionFailed = errors.New("convert: conversion failed")
)

// ConversionError carries the request parameters alongside the failure.
// Reason holds the human-readable text used in user-facing replies.
type ConversionError struct {
	Code   string
	Source string
	Target string
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("convert: %q (%s to %s): %s", e.Code, e.Source, e.Target, e.Reason)
	}
	return fmt.Sprintf("convert: %q (%s to %s): %v", e.Code, e.Source, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the message author when this conversion
// fails.
func (e *ConversionError) UserMessage() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Conversion failed"
}

// NewInvalidCodeError reports a code that failed format validation.
func NewInvalidCodeError(code string) *ConversionError {
	return &ConversionError{
		Code:   code,
		Reason: fmt.Sprintf("Invalid code format: %s", code),
		Err:    ErrInvalidCode,
	}
}

// NewUnsupportedError reports a platform pair the service cannot convert
// between. The wrapped error tells unknown platforms apart from known but
// non-convertible ones.
func NewUnsupportedError(code, source, target string, err error) *ConversionError {
	return &ConversionError{
		Code:   code,
		Source: source,
		Target: target,
		Reason: fmt.Sprintf("Unsupported platform conversion: %s to %s", source, target),
		Err:    err,
	}
}

// NewFailedError reports a rejection from the conversion service.
func NewFailedError(code, source, target, reason string) *ConversionError {
	if reason == "" {
		reason = "Conversion failed"
	}
	return &ConversionError{
		Code:   code,
		Source: source,
		Target: target,
		Reason: reason,
		Err:    ErrConversionFailed,
	}
}
