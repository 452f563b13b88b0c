package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursetutor/tutor-backend/internal/store"
)

type SystemPromptResponse struct {
	Setting   *store.Setting `json:"setting"`
	Effective string         `json:"effective"`
	IsCustom  bool           `json:"is_custom"`
}

func (h *APIHandler) GetSystemPromptHandler(w http.ResponseWriter, r *http.Request) {
	setting, effective, err := h.settings.SystemPrompt(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "get system prompt")
		return
	}
	writeJSON(w, http.StatusOK, SystemPromptResponse{Setting: setting, Effective: effective, IsCustom: setting != nil})
}

type SystemPromptRequest struct {
	Value string `json:"value"`
}

func (h *APIHandler) SetSystemPromptHandler(w http.ResponseWriter, r *http.Request) {
	var req SystemPromptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.settings.SetSystemPrompt(r.Context(), currentUser(r), req.Value); err != nil {
		h.writeServiceError(w, r, err, "save system prompt")
		return
	}
	h.GetSystemPromptHandler(w, r)
}

func (h *APIHandler) ClearSystemPromptHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ClearSystemPrompt(r.Context(), currentUser(r)); err != nil {
		h.writeServiceError(w, r, err, "clear system prompt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ActiveModuleResponse struct {
	Module *store.Module `json:"module"`
}

func (h *APIHandler) GetActiveModuleHandler(w http.ResponseWriter, r *http.Request) {
	module, err := h.settings.ActiveModule(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "get active module")
		return
	}
	writeJSON(w, http.StatusOK, ActiveModuleResponse{Module: module})
}

type SetActiveModuleRequest struct {
	ModuleID string `json:"module_id"`
}

func (h *APIHandler) SetActiveModuleHandler(w http.ResponseWriter, r *http.Request) {
	var req SetActiveModuleRequest
	if err := decodeJSON(r, &req); err != nil || req.ModuleID == "" {
		writeError(w, http.StatusBadRequest, "module_id is required")
		return
	}
	module, err := h.settings.SetActiveModule(r.Context(), currentUser(r), req.ModuleID)
	if err != nil {
		h.writeServiceError(w, r, err, "set active module")
		return
	}
	writeJSON(w, http.StatusOK, ActiveModuleResponse{Module: module})
}

func (h *APIHandler) ClearActiveModuleHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ClearActiveModule(r.Context(), currentUser(r)); err != nil {
		h.writeServiceError(w, r, err, "clear active module")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), currentUser(r))
	if err != nil {
		h.writeServiceError(w, r, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

func (h *APIHandler) SetUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.users.SetRole(r.Context(), currentUser(r), chi.URLParam(r, "userID"), req.Role); err != nil {
		h.writeServiceError(w, r, err, "set user role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
