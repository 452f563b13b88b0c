package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/notify"
	"github.com/coursetutor/tutor-backend/internal/store"
)

func TestSystemPromptOverride(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := newTestUser(t, s, "admin@example.com", true)
	student := newTestUser(t, s, "student@example.com", false)
	settings := NewSettingsService(s, nil, logger.Nop())

	_, effective, err := settings.SystemPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, BaseTeachingPrompt, effective)

	assert.ErrorIs(t, settings.SetSystemPrompt(ctx, student, "nope"), ErrForbidden)

	require.NoError(t, settings.SetSystemPrompt(ctx, admin, "Be brief."))
	row, effective, err := settings.SystemPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", effective)
	require.NotNil(t, row.UpdatedBy)
	assert.Equal(t, admin.ID, *row.UpdatedBy)

	require.NoError(t, settings.SetSystemPrompt(ctx, admin, "   "))
	override, err := settings.SystemPromptOverride(ctx)
	require.NoError(t, err)
	assert.Empty(t, override)
}

func TestActiveModulePublishesChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := newTestUser(t, s, "admin@example.com", true)
	hub := notify.NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()
	settings := NewSettingsService(s, hub, logger.Nop())

	module := &store.Module{UserID: admin.ID, Name: "Crypto", IsGlobal: true}
	require.NoError(t, s.CreateModule(ctx, module))

	_, err := settings.SetActiveModule(ctx, admin, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	private := &store.Module{UserID: admin.ID, Name: "Drafts"}
	require.NoError(t, s.CreateModule(ctx, private))
	_, err = settings.SetActiveModule(ctx, admin, private.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	active, err := settings.SetActiveModule(ctx, admin, module.ID)
	require.NoError(t, err)
	assert.Equal(t, module.ID, active.ID)

	select {
	case ev := <-events:
		require.NotNil(t, ev.ModuleID)
		assert.Equal(t, module.ID, *ev.ModuleID)
		assert.Equal(t, admin.ID, ev.UpdatedBy)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	current, err := settings.ActiveModule(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, module.ID, current.ID)

	require.NoError(t, settings.ClearActiveModule(ctx, admin))
	select {
	case ev := <-events:
		assert.Nil(t, ev.ModuleID)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	id, err := settings.ActiveModuleID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestActiveModuleRequiresAdmin(t *testing.T) {
	s := newTestStore(t)
	student := newTestUser(t, s, "student@example.com", false)
	settings := NewSettingsService(s, nil, logger.Nop())

	_, err := settings.SetActiveModule(context.Background(), student, "m1")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, settings.ClearActiveModule(context.Background(), nil), ErrForbidden)
}
