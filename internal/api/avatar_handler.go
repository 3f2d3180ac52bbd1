package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghiblify/avatar-api/internal/api/shared"
	"github.com/ghiblify/avatar-api/internal/domain"
	"github.com/ghiblify/avatar-api/internal/platform/logger"
	"github.com/ghiblify/avatar-api/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// AvatarHandler handles avatar generation endpoints: submission, status
// queries, and history.
type AvatarHandler struct {
	avatarService *service.AvatarService
	logger        *slog.Logger
}

// NewAvatarHandler creates a new AvatarHandler.
func NewAvatarHandler(avatarService *service.AvatarService, log *slog.Logger) *AvatarHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AvatarHandler{
		avatarService: avatarService,
		logger:        log.With(slog.String("component", "avatar_handler")),
	}
}

// HandleSubmit accepts an avatar generation request, creates the pending
// record, and returns 202 Accepted immediately. The client learns the task
// ID and the estimated processing time; everything else comes from polling.
func (h *AvatarHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitAvatarRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Image payload is required")
		return
	}

	genTask, err := h.avatarService.Submit(r.Context(), req.Image)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	attrs := []any{slog.String("task_id", genTask.ID.String())}
	if req.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", req.SessionID))
	}
	log.Info("avatar generation accepted", attrs...)

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitAvatarResponse{
		ID:               genTask.ID.String(),
		Status:           string(genTask.Status),
		EstimatedSeconds: h.avatarService.EstimatedSeconds(),
	})
}

// HandleGetStatus returns the current state of a generation task. Reads are
// side effect free, so clients may poll as often as they like.
func (h *AvatarHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	genTask, err := h.avatarService.GetStatus(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewAvatarStatusResponse(genTask))
}

// HandleHistory lists generation tasks newest first with optional status
// filtering and pagination.
func (h *AvatarHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	var statusFilter *domain.GenerationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.GenerationStatus(raw)
		if !status.IsValid() {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown status filter")
			return
		}
		statusFilter = &status
	}

	limit := parseQueryInt(r, "limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := parseQueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	tasks, total, err := h.avatarService.History(r.Context(), statusFilter, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	items := make([]AvatarStatusResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, NewAvatarStatusResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HistoryResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
