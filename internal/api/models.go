package api

import (
	"time"

	"github.com/ghiblify/avatar-api/internal/domain"
)

// SubmitAvatarRequest is the request body for submitting an avatar generation.
// Image carries the source photo as a base64 data URI or an HTTP URL.
// SessionID is an optional caller-supplied correlation token; it is logged
// but never persisted with the task record.
type SubmitAvatarRequest struct {
	Image     string `json:"image" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// SubmitAvatarResponse is returned when a generation task is accepted.
type SubmitAvatarResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// AvatarStatusResponse is the representation of a generation task returned
// by status and history endpoints. Result and Error are mutually exclusive.
type AvatarStatusResponse struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Result       string    `json:"result,omitempty"`
	Error        string    `json:"error,omitempty"`
	ProcessingMs int64     `json:"processing_ms,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HistoryResponse is the paginated listing of generation tasks.
type HistoryResponse struct {
	Items  []AvatarStatusResponse `json:"items"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// DownloadRequest is the request body for the image download proxy.
type DownloadRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// NewAvatarStatusResponse converts a domain task to its API representation.
func NewAvatarStatusResponse(t *domain.GenerationTask) AvatarStatusResponse {
	return AvatarStatusResponse{
		ID:           t.ID.String(),
		Status:       string(t.Status),
		Result:       t.ResultReference,
		Error:        t.ErrorDetail,
		ProcessingMs: t.ProcessingMs,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
