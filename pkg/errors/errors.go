// Unified error handling for gcode-slowdown
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// G-code parsing errors
	ErrGCodeParse ErrorCode = "GCODE_PARSE"

	// File I/O errors
	ErrIORead  ErrorCode = "IO_READ"
	ErrIOWrite ErrorCode = "IO_WRITE"
	ErrIOScan  ErrorCode = "IO_SCAN"
)

// HostError is the unified error type for the post-processor
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// File is the G-code or config file (if available)
	File string

	// Line is the 1-based line number in File (if available)
	Line int

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *HostError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("[%s] %s:%d: %s", e.Code, e.File, e.Line, msg)
	case e.File != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.File, msg)
	case e.Line > 0:
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetFile sets the source file
func (e *HostError) SetFile(file string) *HostError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *HostError) SetLine(line int) *HostError {
	e.Line = line
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// GCodeParseError creates an error for a G-code line that cannot be parsed
func GCodeParseError(line string, reason string) *HostError {
	return New(ErrGCodeParse, fmt.Sprintf("failed to parse G-code: %s (reason: %s)", line, reason))
}

// ReadError wraps a failure to read an input file
func ReadError(path string, err error) *HostError {
	return Wrap(err, ErrIORead, "read failed").SetFile(path)
}

// WriteError wraps a failure to write an output file
func WriteError(path string, err error) *HostError {
	return Wrap(err, ErrIOWrite, "write failed").SetFile(path)
}

// ScanError wraps a failure to list an input directory
func ScanError(dir string, err error) *HostError {
	return Wrap(err, ErrIOScan, "directory scan failed").SetFile(dir)
}

// AsHostError finds the first HostError in err's chain
func AsHostError(err error) (*HostError, bool) {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr, true
	}
	return nil, false
}

// Is checks if any error in the chain carries the given code
func Is(err error, code ErrorCode) bool {
	if hostErr, ok := AsHostError(err); ok {
		return hostErr.Code == code
	}
	return false
}

// IsIO checks if error is a file I/O error
func IsIO(err error) bool {
	return Is(err, ErrIORead) || Is(err, ErrIOWrite) || Is(err, ErrIOScan)
}
