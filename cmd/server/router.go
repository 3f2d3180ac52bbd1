package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ghiblify/avatar-api/internal/api"
	apiMiddleware "github.com/ghiblify/avatar-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	avatarHandler := api.NewAvatarHandler(app.avatarService, app.logger)
	downloadHandler := api.NewDownloadHandler(app.fetcher, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/avatars", avatarHandler.HandleSubmit)
		r.Get("/avatars", avatarHandler.HandleHistory)
		r.Get("/avatars/{id}", avatarHandler.HandleGetStatus)
		r.Post("/avatars/download", downloadHandler.HandleDownload)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
