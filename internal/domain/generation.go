package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus represents the processing state of a generation task
type GenerationStatus string

// Possible generation status values
const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusSuccess    GenerationStatus = "success"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// IsValid reports whether s is one of the known generation statuses.
func (s GenerationStatus) IsValid() bool {
	return isValidGenerationStatus(s)
}

// InputReferenceMaxLen bounds how much of the submitted image payload is
// retained on the task record. The full payload is never persisted.
const InputReferenceMaxLen = 100

// GenerationTask is the durable record of one avatar generation request.
// It is created by the submitter in pending state and thereafter mutated
// only by the worker, following the strict path
// pending -> processing -> success|failed.
type GenerationTask struct {
	ID              uuid.UUID        `json:"id"`
	Status          GenerationStatus `json:"status"`
	InputReference  string           `json:"input_reference"`
	ResultReference string           `json:"result_reference,omitempty"`
	ErrorDetail     string           `json:"error_detail,omitempty"`
	ProcessingMs    int64            `json:"processing_ms,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TruncateInputReference reduces an image payload to the opaque reference
// stored on the task record.
func TruncateInputReference(payload string) string {
	if len(payload) <= InputReferenceMaxLen {
		return payload
	}
	return payload[:InputReferenceMaxLen] + "..."
}

// NewGenerationTask creates a new GenerationTask in pending state for the
// given image payload. The payload is truncated to its input reference;
// the caller remains responsible for dispatching the actual work.
// Returns an error if validation fails.
func NewGenerationTask(imagePayload string) (*GenerationTask, error) {
	now := time.Now().UTC()
	task := &GenerationTask{
		ID:             uuid.New(),
		Status:         GenerationStatusPending,
		InputReference: TruncateInputReference(imagePayload),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the GenerationTask has consistent data.
// Returns an error if any field fails validation.
func (t *GenerationTask) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.InputReference == "" {
		return ErrEmptyInputReference
	}

	if !isValidGenerationStatus(t.Status) {
		return ErrInvalidStatus
	}

	switch t.Status {
	case GenerationStatusSuccess:
		if t.ResultReference == "" {
			return ErrEmptyResultReference
		}
		if t.ErrorDetail != "" {
			return fmt.Errorf("%w: error detail set on success", ErrResultOnNonTerminal)
		}
	case GenerationStatusFailed:
		if t.ErrorDetail == "" {
			return ErrEmptyErrorDetail
		}
		if t.ResultReference != "" {
			return fmt.Errorf("%w: result reference set on failure", ErrResultOnNonTerminal)
		}
	default:
		if t.ResultReference != "" || t.ErrorDetail != "" {
			return ErrResultOnNonTerminal
		}
	}

	return nil
}

// IsTerminal reports whether the task has reached a final state.
func (t *GenerationTask) IsTerminal() bool {
	return t.Status == GenerationStatusSuccess || t.Status == GenerationStatusFailed
}

// MarkProcessing transitions the task from pending to processing.
// Returns ErrInvalidTransition for any other starting state.
func (t *GenerationTask) MarkProcessing() error {
	if t.Status != GenerationStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, GenerationStatusProcessing)
	}

	t.Status = GenerationStatusProcessing
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteSuccess transitions the task from processing to success, recording
// the result locator and the elapsed worker time. A task may not skip
// processing or leave a terminal state.
func (t *GenerationTask) CompleteSuccess(resultReference string, elapsed time.Duration) error {
	if t.Status != GenerationStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, GenerationStatusSuccess)
	}
	if resultReference == "" {
		return ErrEmptyResultReference
	}

	t.Status = GenerationStatusSuccess
	t.ResultReference = resultReference
	t.ProcessingMs = elapsed.Milliseconds()
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteFailure transitions the task from processing to failed, recording
// the failure cause and the elapsed worker time.
func (t *GenerationTask) CompleteFailure(errorDetail string, elapsed time.Duration) error {
	if t.Status != GenerationStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, GenerationStatusFailed)
	}
	if errorDetail == "" {
		return ErrEmptyErrorDetail
	}

	t.Status = GenerationStatusFailed
	t.ErrorDetail = errorDetail
	t.ProcessingMs = elapsed.Milliseconds()
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidGenerationStatus checks if the given status is a valid GenerationStatus.
func isValidGenerationStatus(status GenerationStatus) bool {
	switch status {
	case GenerationStatusPending, GenerationStatusProcessing,
		GenerationStatusSuccess, GenerationStatusFailed:
		return true
	default:
		return false
	}
}
