package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coursetutor/tutor-backend/internal/auth"
	"github.com/coursetutor/tutor-backend/internal/core"
	"github.com/coursetutor/tutor-backend/internal/ingest"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/notify"
	"github.com/coursetutor/tutor-backend/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// OCRProxy is the document ingestion adapter as seen by the OCR passthrough endpoint.
type OCRProxy interface {
	IngestEncoded(ctx context.Context, fileData, fileName string, opts ingest.Options) (*ingest.Result, error)
}

type APIHandler struct {
	users    *core.UserService
	chat     *core.ChatService
	courses  *core.CourseService
	settings *core.SettingsService
	ocr      OCRProxy
	hub      *notify.Hub
	log      *logger.Logger
}

func NewAPIHandler(users *core.UserService, chat *core.ChatService, courses *core.CourseService, settings *core.SettingsService, ocr OCRProxy, hub *notify.Hub, log *logger.Logger) *APIHandler {
	return &APIHandler{
		users:    users,
		chat:     chat,
		courses:  courses,
		settings: settings,
		ocr:      ocr,
		hub:      hub,
		log:      log,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := h.users.GetUser(r.Context(), userID)
		if err != nil {
			h.log.Error("Error resolving user in JWTAuthMiddleware", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to process user identity")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly must run after JWTAuthMiddleware.
func (h *APIHandler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := currentUser(r); user == nil || user.Role != store.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken also accepts a token query parameter, since browsers cannot set
// headers on websocket upgrades.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func currentUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to a status; anything unexpected is
// logged and reported as "Failed to <action>".
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var ingestErr *ingest.IngestionError
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, core.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, core.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrCompletionTransport), errors.Is(err, core.ErrMalformedCompletion):
		h.log.Error("Chat completion failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ingest.ErrMissingAPIKey), errors.Is(err, ingest.ErrMissingInput), errors.As(err, &ingestErr):
		h.log.Warn("Document ingestion failed", "path", r.URL.Path, "error", err)
		writeJSON(w, ingest.StatusCode(err), map[string]any{"error": err.Error(), "retriable": ingest.IsRetriable(err)})
	default:
		h.log.Error("Failed to "+action, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type SignupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.users.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.writeServiceError(w, r, err, "create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "log in")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
