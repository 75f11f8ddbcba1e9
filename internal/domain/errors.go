// Package domain defines core types, interfaces, and errors for the
// productivity data pipeline.
package domain

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SchemaError reports every structural problem found in an uploaded table.
// It is collect-all: the operator sees the complete list in one report.
type SchemaError struct {
	Module         string
	MissingColumns []string
	RowErrors      []RowError
}

// RowError describes a single rejected row.
type RowError struct {
	Row    int // 1-based position in the uploaded table, excluding the header
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.MissingColumns) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns: %s", strings.Join(e.MissingColumns, ", ")))
	}
	if len(e.RowErrors) > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected row(s)", len(e.RowErrors)))
	}
	if len(parts) == 0 {
		parts = append(parts, "invalid table")
	}
	return fmt.Sprintf("schema validation failed for module %q: %s", e.Module, strings.Join(parts, "; "))
}

// RosterUnavailableError indicates the authorized-user roster is missing or
// empty. The roster filter fails closed: no rows pass until it is resolved.
type RosterUnavailableError struct {
	Message string
}

func (e *RosterUnavailableError) Error() string { return e.Message }

// CacheMissError signals that no cache entry exists for a module. It is a
// normal control-flow signal, not a failure: the caller falls back to
// requiring a fresh upload.
type CacheMissError struct {
	Module string
}

func (e *CacheMissError) Error() string {
	return fmt.Sprintf("no cache entry for module %q", e.Module)
}

// IngestionIOError indicates an I/O failure while persisting an ingested
// table. The prior cache entry remains authoritative.
type IngestionIOError struct {
	Module string
	Err    error
}

func (e *IngestionIOError) Error() string {
	return fmt.Sprintf("ingestion I/O failure for module %q: %v", e.Module, e.Err)
}

func (e *IngestionIOError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrRosterUnavailable creates a RosterUnavailableError with a formatted message.
func ErrRosterUnavailable(format string, args ...interface{}) *RosterUnavailableError {
	return &RosterUnavailableError{Message: fmt.Sprintf(format, args...)}
}

// ErrCacheMiss creates a CacheMissError for the given module.
func ErrCacheMiss(module string) *CacheMissError {
	return &CacheMissError{Module: module}
}
