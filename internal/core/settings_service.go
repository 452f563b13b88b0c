package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/notify"
	"github.com/coursetutor/tutor-backend/internal/store"
)

// SettingsService owns the admin controlled knobs: the system prompt override
// and the globally active module.
type SettingsService struct {
	dbStore   *store.SQLStore
	publisher notify.Publisher
	log       *logger.Logger
}

func NewSettingsService(db *store.SQLStore, publisher notify.Publisher, log *logger.Logger) *SettingsService {
	return &SettingsService{dbStore: db, publisher: publisher, log: log}
}

// SystemPromptOverride returns the stored override, or "" when none is set.
func (s *SettingsService) SystemPromptOverride(ctx context.Context) (string, error) {
	setting, err := s.dbStore.GetSystemSetting(ctx, store.SystemPromptKey)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}

// SystemPrompt returns the stored override row and the prompt currently in effect.
func (s *SettingsService) SystemPrompt(ctx context.Context) (*store.Setting, string, error) {
	setting, err := s.dbStore.GetSystemSetting(ctx, store.SystemPromptKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	effective := BaseTeachingPrompt
	if setting != nil && strings.TrimSpace(setting.Value) != "" {
		effective = setting.Value
	}
	return setting, effective, nil
}

// SetSystemPrompt stores an override. A blank value clears it.
func (s *SettingsService) SetSystemPrompt(ctx context.Context, admin *store.User, value string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return s.ClearSystemPrompt(ctx, admin)
	}
	desc := "Admin override of the tutor system prompt"
	err := s.dbStore.UpsertSystemSetting(ctx, &store.Setting{
		Key:         store.SystemPromptKey,
		Value:       value,
		Description: &desc,
		UpdatedBy:   &admin.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to save system prompt: %w", err)
	}
	s.log.Info("System prompt override updated", "admin_id", admin.ID)
	return nil
}

func (s *SettingsService) ClearSystemPrompt(ctx context.Context, admin *store.User) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if err := s.dbStore.DeleteSystemSetting(ctx, store.SystemPromptKey); err != nil {
		return fmt.Errorf("failed to clear system prompt: %w", err)
	}
	s.log.Info("System prompt override cleared", "admin_id", admin.ID)
	return nil
}

// ActiveModuleID returns the globally active module id, or "" if none.
func (s *SettingsService) ActiveModuleID(ctx context.Context) (string, error) {
	setting, err := s.dbStore.GetGlobalSetting(ctx, store.ActiveModuleKey)
	if err != nil {
		return "", fmt.Errorf("failed to read active module: %w", err)
	}
	if setting == nil {
		return "", nil
	}
	return strings.TrimSpace(setting.Value), nil
}

// ActiveModule returns the active module, or nil when unset or since deleted.
func (s *SettingsService) ActiveModule(ctx context.Context) (*store.Module, error) {
	id, err := s.ActiveModuleID(ctx)
	if err != nil || id == "" {
		return nil, err
	}
	module, err := s.dbStore.GetModuleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load active module: %w", err)
	}
	return module, nil
}

func (s *SettingsService) SetActiveModule(ctx context.Context, admin *store.User, moduleID string) (*store.Module, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	module, err := s.dbStore.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load module: %w", err)
	}
	if module == nil {
		return nil, ErrNotFound
	}
	// Every user's chat falls back to the active module.
	if !module.IsGlobal {
		return nil, fmt.Errorf("%w: the active module must be global", ErrInvalidInput)
	}

	setting := &store.Setting{Key: store.ActiveModuleKey, Value: module.ID, UpdatedBy: &admin.ID}
	if err := s.dbStore.UpsertGlobalSetting(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to save active module: %w", err)
	}
	s.log.Info("Active module changed", "module_id", module.ID, "admin_id", admin.ID)
	s.publish(ctx, notify.Event{ModuleID: &module.ID, UpdatedBy: admin.ID, UpdatedAt: setting.UpdatedAt})
	return module, nil
}

func (s *SettingsService) ClearActiveModule(ctx context.Context, admin *store.User) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if err := s.dbStore.DeleteGlobalSetting(ctx, store.ActiveModuleKey); err != nil {
		return fmt.Errorf("failed to clear active module: %w", err)
	}
	s.log.Info("Active module cleared", "admin_id", admin.ID)
	s.publish(ctx, notify.Event{UpdatedBy: admin.ID})
	return nil
}

func (s *SettingsService) publish(ctx context.Context, ev notify.Event) {
	if s.publisher == nil {
		return
	}
	if ev.UpdatedAt.IsZero() {
		ev.UpdatedAt = time.Now().UTC()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("Failed to publish active module change", "error", err)
	}
}

func requireAdmin(user *store.User) error {
	if user == nil || user.Role != store.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
