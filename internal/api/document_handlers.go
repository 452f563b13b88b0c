package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coursetutor/tutor-backend/internal/core"
	"github.com/coursetutor/tutor-backend/internal/ingest"
)

const multipartMemory = 32 << 20

type OCRRequest struct {
	FileData string         `json:"fileData"`
	FileName string         `json:"fileName"`
	Options  ingest.Options `json:"options"`
}

// OCRHandler proxies a base64 document to the OCR service and passes its JSON
// answer through untouched, so the API key never reaches the browser.
func (h *APIHandler) OCRHandler(w http.ResponseWriter, r *http.Request) {
	var req OCRRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.ocr.IngestEncoded(r.Context(), req.FileData, req.FileName, req.Options)
	if err != nil {
		h.writeServiceError(w, r, err, "process document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result.Raw)
}

type MetadataRequest struct {
	Text     string `json:"text"`
	FileName string `json:"fileName"`
}

func (h *APIHandler) MetadataHandler(w http.ResponseWriter, r *http.Request) {
	var req MetadataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.FileName) == "" {
		writeError(w, http.StatusBadRequest, "Missing text or fileName")
		return
	}

	writeJSON(w, http.StatusOK, h.courses.GenerateMetadata(r.Context(), req.Text, req.FileName))
}

func (h *APIHandler) CreateModuleHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ModuleInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	module, err := h.courses.CreateModule(r.Context(), currentUser(r), req)
	if err != nil {
		h.writeServiceError(w, r, err, "create module")
		return
	}
	writeJSON(w, http.StatusCreated, module)
}

func (h *APIHandler) ListModulesHandler(w http.ResponseWriter, r *http.Request) {
	modules, err := h.courses.ListModules(r.Context(), currentUser(r))
	if err != nil {
		h.writeServiceError(w, r, err, "list modules")
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

func (h *APIHandler) GetModuleHandler(w http.ResponseWriter, r *http.Request) {
	module, err := h.courses.GetModule(r.Context(), currentUser(r), chi.URLParam(r, "moduleID"))
	if err != nil {
		h.writeServiceError(w, r, err, "get module")
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (h *APIHandler) UpdateModuleHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ModuleInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	module, err := h.courses.UpdateModule(r.Context(), currentUser(r), chi.URLParam(r, "moduleID"), req)
	if err != nil {
		h.writeServiceError(w, r, err, "update module")
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (h *APIHandler) DeleteModuleHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.courses.DeleteModule(r.Context(), currentUser(r), chi.URLParam(r, "moduleID")); err != nil {
		h.writeServiceError(w, r, err, "delete module")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := h.courses.ListDocuments(r.Context(), currentUser(r), chi.URLParam(r, "moduleID"))
	if err != nil {
		h.writeServiceError(w, r, err, "list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// UploadDocumentHandler takes a multipart form with a "file" part, an optional
// "target" (module or course) and optional JSON "options" for the OCR service.
func (h *APIHandler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, core.MaxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	var opts ingest.Options
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid options: "+err.Error())
			return
		}
	}

	input := core.UploadInput{
		FileName: header.Filename,
		FileType: header.Header.Get("Content-Type"),
		Data:     data,
		Target:   r.FormValue("target"),
		Options:  opts,
	}
	result, err := h.courses.UploadDocument(r.Context(), currentUser(r), chi.URLParam(r, "moduleID"), input)
	if ingest.IsAuthError(err) {
		// A 401 here would read as the caller's own session expiring.
		h.log.Error("OCR service rejected server credentials", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "Document processing service is unavailable", "retriable": false})
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err, "upload document")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *APIHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	err := h.courses.DeleteDocument(r.Context(), currentUser(r), chi.URLParam(r, "moduleID"), chi.URLParam(r, "documentID"))
	if err != nil {
		h.writeServiceError(w, r, err, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
