package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ModuleContent methods (module upload flow, keyed by module_id)
func (s *SQLStore) CreateModuleContent(ctx context.Context, mc *ModuleContent) error {
	mc.ID = uuid.NewString()
	mc.CreatedAt = now()
	if mc.ProcessingStatus == "" {
		mc.ProcessingStatus = "completed"
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
        INSERT INTO module_content (id, module_id, user_id, document_id, file_name, file_type, file_size,
            extracted_text, processed_content, processing_status, summary, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		mc.ID, mc.ModuleID, mc.UserID, mc.DocumentID, mc.FileName, mc.FileType, mc.FileSize,
		mc.ExtractedText, mc.ProcessedContent, mc.ProcessingStatus, mc.Summary, mc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute module_content insert: %w", err)
	}
	return nil
}

// GetModuleContent lists a module's documents, most recent first.
func (s *SQLStore) GetModuleContent(ctx context.Context, moduleID string) ([]ModuleContent, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
        SELECT id, module_id, user_id, document_id, file_name, file_type, file_size,
            extracted_text, processed_content, processing_status, summary, created_at
        FROM module_content WHERE module_id = ? ORDER BY created_at DESC`), moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query module_content: %w", err)
	}
	defer rows.Close()

	items := []ModuleContent{}
	for rows.Next() {
		var mc ModuleContent
		var userID, documentID, extracted, processed, status, summary sql.NullString
		var fileSize sql.NullInt64
		if err := rows.Scan(&mc.ID, &mc.ModuleID, &userID, &documentID, &mc.FileName, &mc.FileType, &fileSize,
			&extracted, &processed, &status, &summary, &mc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module_content row: %w", err)
		}
		mc.UserID = userID.String
		mc.DocumentID = nullableString(documentID)
		mc.FileSize = fileSize.Int64
		mc.ExtractedText = nullableString(extracted)
		mc.ProcessedContent = nullableString(processed)
		mc.ProcessingStatus = status.String
		mc.Summary = nullableString(summary)
		items = append(items, mc)
	}
	return items, rows.Err()
}

// ProcessedDocument methods (standalone course upload flow, keyed by course_id)
func (s *SQLStore) CreateProcessedDocument(ctx context.Context, doc *ProcessedDocument) error {
	doc.ID = uuid.NewString()
	doc.CreatedAt = now()
	_, err := s.db.ExecContext(ctx, s.rebind(`
        INSERT INTO processed_documents (id, course_id, user_id, llm_whisperer_id, original_filename,
            processed_text, title, description, is_approved, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		doc.ID, doc.CourseID, doc.UserID, doc.LLMWhispererID, doc.OriginalFilename,
		doc.ProcessedText, doc.Title, doc.Description, doc.IsApproved, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute processed_documents insert: %w", err)
	}
	return nil
}

// GetProcessedDocuments lists a course's processed documents, most recent first.
func (s *SQLStore) GetProcessedDocuments(ctx context.Context, courseID string) ([]ProcessedDocument, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
        SELECT id, course_id, user_id, llm_whisperer_id, original_filename, processed_text,
            title, description, is_approved, created_at
        FROM processed_documents WHERE course_id = ? ORDER BY created_at DESC`), courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed_documents: %w", err)
	}
	defer rows.Close()

	docs := []ProcessedDocument{}
	for rows.Next() {
		var doc ProcessedDocument
		var userID, whispererID, title, description sql.NullString
		if err := rows.Scan(&doc.ID, &doc.CourseID, &userID, &whispererID, &doc.OriginalFilename, &doc.ProcessedText,
			&title, &description, &doc.IsApproved, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processed_documents row: %w", err)
		}
		doc.UserID = userID.String
		doc.LLMWhispererID = nullableString(whispererID)
		doc.Title = nullableString(title)
		doc.Description = nullableString(description)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document of the module from whichever table holds it.
func (s *SQLStore) DeleteDocument(ctx context.Context, moduleID, documentRowID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM module_content WHERE id = ? AND module_id = ?"), documentRowID, moduleID)
	if err != nil {
		return fmt.Errorf("failed to delete module_content row: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}
	res, err = s.db.ExecContext(ctx, s.rebind("DELETE FROM processed_documents WHERE id = ? AND course_id = ?"), documentRowID, moduleID)
	if err != nil {
		return fmt.Errorf("failed to delete processed_documents row: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
