package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursetutor/tutor-backend/internal/ingest"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.NewSQLStore(store.DriverSQLite, filepath.Join(t.TempDir(), "tutor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *store.SQLStore, email string, admin bool) *store.User {
	t.Helper()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, email, "hash", nil)
	require.NoError(t, err)
	if admin {
		require.NoError(t, s.SetUserRole(ctx, user.ID, store.RoleAdmin))
		user.Role = store.RoleAdmin
	}
	return user
}

func strPtr(s string) *string { return &s }

type completionCall struct {
	SystemPrompt string
	History      []Turn
	NewMessage   string
}

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []completionCall
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt string, history []Turn, newMessage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completionCall{SystemPrompt: systemPrompt, History: append([]Turn(nil), history...), NewMessage: newMessage})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) lastCall(t *testing.T) completionCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

type fakeTitles struct {
	title string
	err   error
}

func (f *fakeTitles) GenerateConversationTitle(context.Context, string, string) (string, error) {
	return f.title, f.err
}

type fakeIngester struct {
	result *ingest.Result
	err    error
	calls  int
}

func (f *fakeIngester) Ingest(context.Context, []byte, string, ingest.Options) (*ingest.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeMetadata struct {
	meta *DocumentMetadata
	err  error
}

func (f *fakeMetadata) GenerateDocumentMetadata(context.Context, string, string) (*DocumentMetadata, error) {
	return f.meta, f.err
}

type chatFixture struct {
	store     *store.SQLStore
	settings  *SettingsService
	completer *fakeCompleter
	chat      *ChatService
}

func newChatFixture(t *testing.T, titles TitleGenerator) *chatFixture {
	t.Helper()
	s := newTestStore(t)
	log := logger.Nop()
	settings := NewSettingsService(s, nil, log)
	completer := &fakeCompleter{reply: "What do you already know about firewalls?"}
	chat := NewChatService(s, NewContentAggregator(s, log), settings, completer, titles, 4, log)
	return &chatFixture{store: s, settings: settings, completer: completer, chat: chat}
}
