package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "tutor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestNewSQLStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLStore("mysql", "whatever")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &SQLStore{driver: DriverSQLite}
	assert.Equal(t, "SELECT * FROM t WHERE a = ?", lite.rebind("SELECT * FROM t WHERE a = ?"))
}

func TestUsersAndRoles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, "ada@example.com", "hash", strPtr("Ada"))
	require.NoError(t, err)
	assert.Equal(t, RoleUser, user.Role)

	found, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Ada", *found.FullName)

	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.SetUserRole(ctx, user.ID, RoleAdmin))
	promoted, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, promoted.Role)

	assert.ErrorIs(t, s.SetUserRole(ctx, "no-such-user", RoleAdmin), ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMessageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.CreateConversation(ctx, "user-1", nil, "New Conversation")
	require.NoError(t, err)

	userMsg := &Message{ConversationID: conv.ID, IsUser: true, Content: "What is a firewall?", QuestionContext: strPtr("hint: week 2")}
	require.NoError(t, s.CreateMessage(ctx, userMsg))
	time.Sleep(2 * time.Millisecond)
	modelMsg := &Message{ConversationID: conv.ID, IsUser: false, Content: "What do you think it filters?", ToolsUsed: []string{}}
	require.NoError(t, s.CreateMessage(ctx, modelMsg))

	messages, err := s.GetMessagesByConversationID(ctx, conv.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "What is a firewall?", messages[0].Content)
	assert.True(t, messages[0].IsUser)
	require.NotNil(t, messages[0].QuestionContext)
	assert.Equal(t, "hint: week 2", *messages[0].QuestionContext)

	assert.Equal(t, "What do you think it filters?", messages[1].Content)
	assert.False(t, messages[1].IsUser)
	assert.Nil(t, messages[1].QuestionContext)
	assert.Empty(t, messages[1].ToolsUsed)

	last, err := s.GetLastNMessages(ctx, conv.ID, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, modelMsg.ID, last[0].ID)

	count, err := s.CountMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestConversationOwnershipAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.CreateConversation(ctx, "owner", strPtr("module-1"), "New Conversation")
	require.NoError(t, err)
	require.NoError(t, s.CreateMessage(ctx, &Message{ConversationID: conv.ID, IsUser: true, Content: "hi"}))

	other, err := s.GetConversationByID(ctx, conv.ID, "intruder")
	require.NoError(t, err)
	assert.Nil(t, other)

	assert.ErrorIs(t, s.UpdateConversationTitle(ctx, conv.ID, "intruder", "x"), ErrNotFound)
	require.NoError(t, s.UpdateConversationTitle(ctx, conv.ID, "owner", "Firewall basics"))

	got, err := s.GetConversationByID(ctx, conv.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Firewall basics", got.Title)
	assert.Equal(t, "module-1", *got.ModuleID)

	assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID, "intruder"), ErrNotFound)
	require.NoError(t, s.DeleteConversation(ctx, conv.ID, "owner"))

	count, err := s.CountMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestModulesVisibility(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	own := &Module{UserID: "alice", Name: "Network Security", Code: strPtr("SEC101"), SuggestedQuestions: []string{"What is TLS?"}}
	global := &Module{UserID: "bob", Name: "Cryptography", IsGlobal: true}
	private := &Module{UserID: "bob", Name: "Bob's notes"}
	for _, m := range []*Module{own, global, private} {
		require.NoError(t, s.CreateModule(ctx, m))
	}

	visible, err := s.GetVisibleModules(ctx, "alice")
	require.NoError(t, err)
	var names []string
	for _, m := range visible {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Network Security", "Cryptography"}, names)

	own.Description = strPtr("Intro course")
	require.NoError(t, s.UpdateModule(ctx, own))
	got, err := s.GetModuleByID(ctx, own.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro course", *got.Description)
	assert.Equal(t, []string{"What is TLS?"}, got.SuggestedQuestions)

	require.NoError(t, s.CreateModuleContent(ctx, &ModuleContent{ModuleID: own.ID, FileName: "a.pdf", FileType: "application/pdf", ExtractedText: strPtr("text")}))
	require.NoError(t, s.DeleteModule(ctx, own.ID))
	content, err := s.GetModuleContent(ctx, own.ID)
	require.NoError(t, err)
	assert.Empty(t, content)
	assert.ErrorIs(t, s.DeleteModule(ctx, own.ID), ErrNotFound)
}

func TestDocumentsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mc := &ModuleContent{ModuleID: "m1", FileName: "intro.pdf", FileType: "application/pdf", DocumentID: strPtr("doc-1"), ProcessedContent: strPtr("Intro to X")}
	require.NoError(t, s.CreateModuleContent(ctx, mc))
	pd := &ProcessedDocument{CourseID: "m1", OriginalFilename: "intro.pdf", ProcessedText: "Intro to X", LLMWhispererID: strPtr("doc-1"), Title: strPtr("Intro")}
	require.NoError(t, s.CreateProcessedDocument(ctx, pd))

	contents, err := s.GetModuleContent(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "completed", contents[0].ProcessingStatus)
	assert.Equal(t, "doc-1", *contents[0].DocumentID)

	docs, err := s.GetProcessedDocuments(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Intro", *docs[0].Title)

	require.NoError(t, s.DeleteDocument(ctx, "m1", pd.ID))
	require.NoError(t, s.DeleteDocument(ctx, "m1", mc.ID))
	assert.ErrorIs(t, s.DeleteDocument(ctx, "m1", mc.ID), ErrNotFound)
}

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	missing, err := s.GetSystemSetting(ctx, SystemPromptKey)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.UpsertSystemSetting(ctx, &Setting{Key: SystemPromptKey, Value: "first"}))
	require.NoError(t, s.UpsertSystemSetting(ctx, &Setting{Key: SystemPromptKey, Value: "second", UpdatedBy: strPtr("admin")}))

	got, err := s.GetSystemSetting(ctx, SystemPromptKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Value)
	assert.Equal(t, "admin", *got.UpdatedBy)

	require.NoError(t, s.UpsertGlobalSetting(ctx, &Setting{Key: ActiveModuleKey, Value: "m1"}))
	active, err := s.GetGlobalSetting(ctx, ActiveModuleKey)
	require.NoError(t, err)
	assert.Equal(t, "m1", active.Value)

	require.NoError(t, s.DeleteGlobalSetting(ctx, ActiveModuleKey))
	active, err = s.GetGlobalSetting(ctx, ActiveModuleKey)
	require.NoError(t, err)
	assert.Nil(t, active)
}
