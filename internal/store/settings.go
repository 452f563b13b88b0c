package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	// SystemPromptKey holds the admin override of the tutor's system prompt.
	SystemPromptKey = "ai_system_prompt"
	// ActiveModuleKey holds the module every user sees when none is chosen.
	ActiveModuleKey = "active_module_id"

	systemSettingsTable = "system_settings"
	globalSettingsTable = "global_settings"
)

func (s *SQLStore) getSetting(ctx context.Context, table, key string) (*Setting, error) {
	var setting Setting
	var value, description, updatedBy sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT setting_key, setting_value, description, updated_by, updated_at FROM "+table+" WHERE setting_key = ?"), key).
		Scan(&setting.Key, &value, &description, &updatedBy, &setting.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	setting.Value = value.String
	setting.Description = nullableString(description)
	setting.UpdatedBy = nullableString(updatedBy)
	return &setting, nil
}

func (s *SQLStore) upsertSetting(ctx context.Context, table string, setting *Setting) error {
	setting.UpdatedAt = now()
	_, err := s.db.ExecContext(ctx, s.rebind(`
        INSERT INTO `+table+` (setting_key, setting_value, description, updated_by, updated_at) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (setting_key) DO UPDATE SET
            setting_value = excluded.setting_value,
            description = excluded.description,
            updated_by = excluded.updated_by,
            updated_at = excluded.updated_at`),
		setting.Key, setting.Value, setting.Description, setting.UpdatedBy, setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", table, err)
	}
	return nil
}

func (s *SQLStore) deleteSetting(ctx context.Context, table, key string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE setting_key = ?"), key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// GetSystemSetting returns nil, nil when the key has never been set.
func (s *SQLStore) GetSystemSetting(ctx context.Context, key string) (*Setting, error) {
	return s.getSetting(ctx, systemSettingsTable, key)
}

func (s *SQLStore) UpsertSystemSetting(ctx context.Context, setting *Setting) error {
	return s.upsertSetting(ctx, systemSettingsTable, setting)
}

func (s *SQLStore) DeleteSystemSetting(ctx context.Context, key string) error {
	return s.deleteSetting(ctx, systemSettingsTable, key)
}

// GetGlobalSetting returns nil, nil when the key has never been set.
func (s *SQLStore) GetGlobalSetting(ctx context.Context, key string) (*Setting, error) {
	return s.getSetting(ctx, globalSettingsTable, key)
}

func (s *SQLStore) UpsertGlobalSetting(ctx context.Context, setting *Setting) error {
	return s.upsertSetting(ctx, globalSettingsTable, setting)
}

func (s *SQLStore) DeleteGlobalSetting(ctx context.Context, key string) error {
	return s.deleteSetting(ctx, globalSettingsTable, key)
}
