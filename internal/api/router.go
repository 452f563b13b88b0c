package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	upgrader := newUpgrader(allowedOrigins)

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", apiHandler.HealthHandler)
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/me", apiHandler.MeHandler)
			r.Post("/chat", apiHandler.ChatHandler)

			r.Post("/documents/ocr", apiHandler.OCRHandler)
			r.Post("/documents/metadata", apiHandler.MetadataHandler)

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", apiHandler.CreateConversationHandler)
				r.Get("/", apiHandler.ListConversationsHandler)
				r.Get("/{conversationID}", apiHandler.GetConversationHandler)
				r.Delete("/{conversationID}", apiHandler.DeleteConversationHandler)
				r.Post("/{conversationID}/messages", apiHandler.PostMessageHandler)
			})

			r.Route("/modules", func(r chi.Router) {
				r.Post("/", apiHandler.CreateModuleHandler)
				r.Get("/", apiHandler.ListModulesHandler)
				r.Get("/{moduleID}", apiHandler.GetModuleHandler)
				r.Put("/{moduleID}", apiHandler.UpdateModuleHandler)
				r.Delete("/{moduleID}", apiHandler.DeleteModuleHandler)
				r.Get("/{moduleID}/documents", apiHandler.ListDocumentsHandler)
				r.Post("/{moduleID}/documents", apiHandler.UploadDocumentHandler)
				r.Delete("/{moduleID}/documents/{documentID}", apiHandler.DeleteDocumentHandler)
			})

			r.Get("/active-module", apiHandler.GetActiveModuleHandler)
			r.Get("/active-module/ws", apiHandler.ActiveModuleSocketHandler(upgrader))

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(apiHandler.AdminOnly)

				r.Get("/system-prompt", apiHandler.GetSystemPromptHandler)
				r.Put("/system-prompt", apiHandler.SetSystemPromptHandler)
				r.Delete("/system-prompt", apiHandler.ClearSystemPromptHandler)
				r.Put("/active-module", apiHandler.SetActiveModuleHandler)
				r.Delete("/active-module", apiHandler.ClearActiveModuleHandler)
				r.Get("/users", apiHandler.ListUsersHandler)
				r.Put("/users/{userID}/role", apiHandler.SetUserRoleHandler)
			})
		})
	})

	return r
}
