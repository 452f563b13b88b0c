package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const moduleColumns = `id, user_id, name, code, description, is_global, suggested_questions, created_at, updated_at`

func scanModule(row interface{ Scan(...any) error }) (*Module, error) {
	var m Module
	var code, description, questions sql.NullString
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &code, &description, &m.IsGlobal, &questions, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Code = nullableString(code)
	m.Description = nullableString(description)
	m.SuggestedQuestions = decodeStrings(questions)
	return &m, nil
}

func (s *SQLStore) CreateModule(ctx context.Context, m *Module) error {
	m.ID = uuid.NewString()
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	if m.SuggestedQuestions == nil {
		m.SuggestedQuestions = []string{}
	}
	questions, err := encodeStrings(m.SuggestedQuestions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind("INSERT INTO modules ("+moduleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		m.ID, m.UserID, m.Name, m.Code, m.Description, m.IsGlobal, questions, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute module insert: %w", err)
	}
	return nil
}

// GetModuleByID returns nil, nil when the module does not exist.
func (s *SQLStore) GetModuleByID(ctx context.Context, id string) (*Module, error) {
	m, err := scanModule(s.db.QueryRowContext(ctx, s.rebind("SELECT "+moduleColumns+" FROM modules WHERE id = ?"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return m, nil
}

// GetVisibleModules lists the user's own modules and every global module.
func (s *SQLStore) GetVisibleModules(ctx context.Context, userID string) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT "+moduleColumns+" FROM modules WHERE user_id = ? OR is_global = ? ORDER BY created_at DESC"), userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	modules := []Module{}
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module row: %w", err)
		}
		modules = append(modules, *m)
	}
	return modules, rows.Err()
}

func (s *SQLStore) UpdateModule(ctx context.Context, m *Module) error {
	m.UpdatedAt = now()
	questions, err := encodeStrings(m.SuggestedQuestions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE modules SET name = ?, code = ?, description = ?, is_global = ?, suggested_questions = ?, updated_at = ? WHERE id = ?"),
		m.Name, m.Code, m.Description, m.IsGlobal, questions, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to execute module update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteModule removes the module along with every document stored for it.
func (s *SQLStore) DeleteModule(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin module delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM module_content WHERE module_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete module content: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM processed_documents WHERE course_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete processed documents: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM modules WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
