package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coursetutor/tutor-backend/internal/ingest"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

const (
	// TargetModuleContent stores uploads in module_content (the module upload flow).
	TargetModuleContent = "module"
	// TargetProcessedDocuments stores uploads in processed_documents (the course upload flow).
	TargetProcessedDocuments = "course"

	MaxUploadSize = 50 << 20
)

// Ingester extracts text from an uploaded file.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, fileName string, opts ingest.Options) (*ingest.Result, error)
}

type ModuleInput struct {
	Name               string   `json:"name"`
	Code               *string  `json:"code"`
	Description        *string  `json:"description"`
	IsGlobal           bool     `json:"is_global"`
	SuggestedQuestions []string `json:"suggested_questions"`
}

type UploadInput struct {
	FileName string
	FileType string
	Data     []byte
	Target   string
	Options  ingest.Options
}

type UploadResult struct {
	Target            string                   `json:"target"`
	Metadata          *DocumentMetadata        `json:"metadata"`
	ModuleContent     *store.ModuleContent     `json:"module_content,omitempty"`
	ProcessedDocument *store.ProcessedDocument `json:"processed_document,omitempty"`
}

// ModuleDocuments lists the raw rows of both document tables for a module.
type ModuleDocuments struct {
	ModuleContent      []store.ModuleContent     `json:"module_content"`
	ProcessedDocuments []store.ProcessedDocument `json:"processed_documents"`
}

// CourseService manages modules and the documents uploaded into them.
type CourseService struct {
	dbStore  *store.SQLStore
	ingester Ingester
	metadata MetadataGenerator // optional
	log      *logger.Logger
}

func NewCourseService(db *store.SQLStore, ingester Ingester, metadata MetadataGenerator, log *logger.Logger) *CourseService {
	return &CourseService{dbStore: db, ingester: ingester, metadata: metadata, log: log}
}

func (s *CourseService) CreateModule(ctx context.Context, user *store.User, input ModuleInput) (*store.Module, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: module name is required", ErrInvalidInput)
	}
	if input.IsGlobal && user.Role != store.RoleAdmin {
		return nil, ErrForbidden
	}
	module := &store.Module{
		UserID:             user.ID,
		Name:               strings.TrimSpace(input.Name),
		Code:               input.Code,
		Description:        input.Description,
		IsGlobal:           input.IsGlobal,
		SuggestedQuestions: input.SuggestedQuestions,
	}
	if err := s.dbStore.CreateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}
	s.log.Info("Module created", "module_id", module.ID, "user_id", user.ID)
	return module, nil
}

func (s *CourseService) ListModules(ctx context.Context, user *store.User) ([]store.Module, error) {
	return s.dbStore.GetVisibleModules(ctx, user.ID)
}

// GetModule hides modules the user cannot see behind ErrNotFound.
func (s *CourseService) GetModule(ctx context.Context, user *store.User, moduleID string) (*store.Module, error) {
	module, err := s.dbStore.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module == nil || !canView(user, module) {
		return nil, ErrNotFound
	}
	return module, nil
}

func (s *CourseService) UpdateModule(ctx context.Context, user *store.User, moduleID string, input ModuleInput) (*store.Module, error) {
	module, err := s.manageableModule(ctx, user, moduleID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: module name is required", ErrInvalidInput)
	}
	if input.IsGlobal != module.IsGlobal && user.Role != store.RoleAdmin {
		return nil, ErrForbidden
	}
	module.Name = strings.TrimSpace(input.Name)
	module.Code = input.Code
	module.Description = input.Description
	module.IsGlobal = input.IsGlobal
	if input.SuggestedQuestions != nil {
		module.SuggestedQuestions = input.SuggestedQuestions
	}
	if err := s.dbStore.UpdateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}
	return module, nil
}

func (s *CourseService) DeleteModule(ctx context.Context, user *store.User, moduleID string) error {
	if _, err := s.manageableModule(ctx, user, moduleID); err != nil {
		return err
	}
	if err := s.dbStore.DeleteModule(ctx, moduleID); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	s.log.Info("Module deleted", "module_id", moduleID, "user_id", user.ID)
	return nil
}

// UploadDocument extracts the file's text through the OCR service, suggests
// metadata and stores the document in the requested table.
func (s *CourseService) UploadDocument(ctx context.Context, user *store.User, moduleID string, input UploadInput) (*UploadResult, error) {
	module, err := s.manageableModule(ctx, user, moduleID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FileName) == "" || len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: a non-empty file is required", ErrInvalidInput)
	}
	if len(input.Data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, MaxUploadSize)
	}
	target := input.Target
	if target == "" {
		target = TargetModuleContent
	}
	if target != TargetModuleContent && target != TargetProcessedDocuments {
		return nil, fmt.Errorf("%w: unknown upload target %q", ErrInvalidInput, target)
	}

	result, err := s.ingester.Ingest(ctx, input.Data, input.FileName, input.Options)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: no text could be extracted from %s", ErrInvalidInput, input.FileName)
	}

	meta := s.GenerateMetadata(ctx, text, input.FileName)
	externalID := result.ExternalID
	out := &UploadResult{Target: target, Metadata: meta}

	if target == TargetProcessedDocuments {
		doc := &store.ProcessedDocument{
			CourseID:         module.ID,
			UserID:           user.ID,
			LLMWhispererID:   &externalID,
			OriginalFilename: input.FileName,
			ProcessedText:    text,
			Title:            &meta.Title,
			Description:      &meta.Description,
			IsApproved:       true,
		}
		if err := s.dbStore.CreateProcessedDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to store processed document: %w", err)
		}
		out.ProcessedDocument = doc
	} else {
		mc := &store.ModuleContent{
			ModuleID:         module.ID,
			UserID:           user.ID,
			DocumentID:       &externalID,
			FileName:         input.FileName,
			FileType:         input.FileType,
			FileSize:         int64(len(input.Data)),
			ExtractedText:    &text,
			ProcessedContent: &text,
			Summary:          &meta.Description,
		}
		if err := s.dbStore.CreateModuleContent(ctx, mc); err != nil {
			return nil, fmt.Errorf("failed to store module content: %w", err)
		}
		out.ModuleContent = mc
	}

	s.log.Info("Document uploaded", "module_id", module.ID, "target", target, "file", input.FileName, "external_id", externalID)
	return out, nil
}

func (s *CourseService) ListDocuments(ctx context.Context, user *store.User, moduleID string) (*ModuleDocuments, error) {
	if _, err := s.GetModule(ctx, user, moduleID); err != nil {
		return nil, err
	}
	moduleRows, err := s.dbStore.GetModuleContent(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	processedRows, err := s.dbStore.GetProcessedDocuments(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	return &ModuleDocuments{ModuleContent: moduleRows, ProcessedDocuments: processedRows}, nil
}

func (s *CourseService) DeleteDocument(ctx context.Context, user *store.User, moduleID, documentID string) error {
	if _, err := s.manageableModule(ctx, user, moduleID); err != nil {
		return err
	}
	if err := s.dbStore.DeleteDocument(ctx, moduleID, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GenerateMetadata never fails: model errors fall back to the file name and text.
func (s *CourseService) GenerateMetadata(ctx context.Context, text, fileName string) *DocumentMetadata {
	if s.metadata == nil {
		return FallbackDocumentMetadata(text, fileName)
	}
	meta, err := s.metadata.GenerateDocumentMetadata(ctx, text, fileName)
	if err != nil {
		s.log.Warn("Metadata generation failed, using fallback", "file", fileName, "error", err)
		return FallbackDocumentMetadata(text, fileName)
	}
	return meta
}

func (s *CourseService) manageableModule(ctx context.Context, user *store.User, moduleID string) (*store.Module, error) {
	module, err := s.GetModule(ctx, user, moduleID)
	if err != nil {
		return nil, err
	}
	if !canManage(user, module) {
		return nil, ErrForbidden
	}
	return module, nil
}

func canView(user *store.User, module *store.Module) bool {
	return module.IsGlobal || canManage(user, module)
}

func canManage(user *store.User, module *store.Module) bool {
	return user != nil && (user.Role == store.RoleAdmin || user.ID == module.UserID)
}
