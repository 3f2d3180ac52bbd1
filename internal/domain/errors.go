package domain

import "errors"

// Common validation errors for GenerationTask
var (
	ErrEmptyTaskID          = errors.New("generation task ID cannot be empty")
	ErrEmptyInputReference  = errors.New("generation task input reference cannot be empty")
	ErrInvalidStatus        = errors.New("invalid generation status")
	ErrInvalidTransition    = errors.New("invalid generation status transition")
	ErrEmptyResultReference = errors.New("result reference cannot be empty on success")
	ErrEmptyErrorDetail     = errors.New("error detail cannot be empty on failure")
	ErrResultOnNonTerminal  = errors.New("result or error set before a terminal state")
)
