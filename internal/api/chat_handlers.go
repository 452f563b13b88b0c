package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursetutor/tutor-backend/internal/core"
)

const (
	defaultMessagePage = 100
	maxMessagePage     = 500
)

// ChatHandler is the stateless tutoring endpoint: the client sends the whole visible history.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := h.chat.Respond(r.Context(), currentUser(r), req)
	if err != nil {
		h.writeServiceError(w, r, err, "generate response")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type CreateConversationRequest struct {
	ModuleID *string `json:"module_id,omitempty"`
	Title    string  `json:"title,omitempty"`
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req CreateConversationRequest
	if r.Body != http.NoBody && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	conv, err := h.chat.CreateConversation(r.Context(), user, req.ModuleID, req.Title)
	if err != nil {
		h.writeServiceError(w, r, err, "create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	conversations, err := h.chat.ListConversations(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err, "list conversations")
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	conversationID := chi.URLParam(r, "conversationID")

	limit := queryInt(r, "limit", defaultMessagePage)
	if limit <= 0 || limit > maxMessagePage {
		limit = defaultMessagePage
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	details, err := h.chat.GetConversation(r.Context(), conversationID, user.ID, limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err, "get conversation")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	conversationID := chi.URLParam(r, "conversationID")

	if err := h.chat.DeleteConversation(r.Context(), conversationID, user.ID); err != nil {
		h.writeServiceError(w, r, err, "delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Content         string  `json:"content"`
	QuestionContext *string `json:"questionContext,omitempty"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	conversationID := chi.URLParam(r, "conversationID")

	var req PostMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := h.chat.PostMessage(r.Context(), user, conversationID, req.Content, req.QuestionContext)
	if err != nil {
		h.writeServiceError(w, r, err, "post message")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func queryInt(r *http.Request, key string, fallback int) int {
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
