// Package service contains the application services that sit between the
// HTTP layer and the store. Services own input validation, transaction
// boundaries, and task dispatch.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates the submitted payload failed validation
	// before any record was created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDispatchFailed indicates the record was created but the background
	// task could not be dispatched.
	ErrDispatchFailed = errors.New("task dispatch failed")
)

// ServiceError wraps an underlying error with the operation that failed,
// preserving the cause for errors.Is checks.
type ServiceError struct {
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service operation %q failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError for the given operation.
func NewServiceError(operation string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Err: err}
}
