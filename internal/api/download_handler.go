package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ghiblify/avatar-api/internal/api/shared"
	"github.com/ghiblify/avatar-api/internal/generation"
)

// DownloadHandler proxies result image downloads through the server. Result
// hosts do not send permissive CORS headers, so browsers cannot save the
// image directly; the proxy fetches it server side and streams it back.
type DownloadHandler struct {
	fetcher generation.Fetcher
	logger  *slog.Logger
}

// NewDownloadHandler creates a new DownloadHandler.
func NewDownloadHandler(fetcher generation.Fetcher, log *slog.Logger) *DownloadHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DownloadHandler{
		fetcher: fetcher,
		logger:  log.With(slog.String("component", "download_handler")),
	}
}

// HandleDownload fetches the image at the requested URL and returns it as an
// attachment.
func (h *DownloadHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "A valid image URL is required")
		return
	}

	data, err := h.fetcher.FetchImage(r.Context(), req.URL)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusBadGateway, "Failed to fetch image", err)
		return
	}

	contentType := http.DetectContentType(data)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="ghibli-avatar.png"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write image response", slog.String("error", err.Error()))
	}
}
