package service

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestFactory backs the services with an in-memory SQLite database. The
// raw handle is returned too so tests can backdate timestamps.
func openTestFactory(t *testing.T) (*gorm.DB, unitofwork.RepositoryFactory) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.AuthToken{},
		&model.StudySession{},
		&model.ConversationMessage{},
		&model.ConversationSnapshot{},
		&model.StoredDocument{},
		&model.DocumentChunk{},
		&model.GeneratedArtifact{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db, unitofwork.NewRepositoryFactory(db)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeIndex records rebuilds and drops; Search returns canned matches.
type fakeIndex struct {
	matches   []string
	searchErr error
	dropped   []vectorstore.Scope
	rebuilt   map[string][]vectorstore.Chunk
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{rebuilt: make(map[string][]vectorstore.Chunk)}
}

func scopeKey(scope vectorstore.Scope) string {
	return scope.UserId.String() + "/" + scope.SessionId.String()
}

func (f *fakeIndex) Rebuild(_ context.Context, scope vectorstore.Scope, chunks []vectorstore.Chunk) error {
	f.rebuilt[scopeKey(scope)] = chunks
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ vectorstore.Scope, _ string, _ int) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeIndex) Drop(_ context.Context, scope vectorstore.Scope) error {
	f.dropped = append(f.dropped, scope)
	delete(f.rebuilt, scopeKey(scope))
	return nil
}

func (f *fakeIndex) Ready(_ context.Context, scope vectorstore.Scope) (bool, error) {
	return len(f.rebuilt[scopeKey(scope)]) > 0, nil
}

// fakeEngine answers with a fixed response and optionally replays fragments.
type fakeEngine struct {
	response  string
	fragments []string
	err       error
	lastInput []llm.Message
}

func (f *fakeEngine) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.lastInput = history
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeEngine) ChatStream(_ context.Context, history []llm.Message, onDelta func(string) error, _ ...llm.Option) (string, error) {
	f.lastInput = history
	if f.err != nil {
		return "", f.err
	}
	var full string
	for _, frag := range f.fragments {
		if err := onDelta(frag); err != nil {
			return "", err
		}
		full += frag
	}
	return full, nil
}

func (f *fakeEngine) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.lastInput = []llm.Message{{Role: "user", Content: prompt}}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func seedUser(t *testing.T, factory unitofwork.RepositoryFactory) uuid.UUID {
	t.Helper()
	user := &entity.User{
		Id:           uuid.New(),
		Username:     "u_" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@test.local",
		PasswordHash: "x",
	}
	uow := factory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.UserRepository().Create(context.Background(), user))
	return user.Id
}

func newTestSessionService(t *testing.T, factory unitofwork.RepositoryFactory, index vectorstore.Index) ISessionService {
	t.Helper()
	return NewSessionService(factory, memory.NewSessionCache(), index, nil, nopLogger{}, t.TempDir())
}

// backdateSession rewrites last_accessed_at so cleanup cutoffs can be tested
// without sleeping.
func backdateSession(t *testing.T, db *gorm.DB, sessionId uuid.UUID, ago time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(&model.StudySession{}).
		Where("id = ?", sessionId).
		Update("last_accessed_at", time.Now().Add(-ago)).Error)
}
