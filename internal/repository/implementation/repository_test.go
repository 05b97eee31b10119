package implementation

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/chat"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory SQLite database with all domain tables.
func openTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func newSession(t *testing.T, db *gorm.DB, userId uuid.UUID, title string) *entity.StudySession {
	t.Helper()
	repo := NewStudySessionRepository(db)
	session := &entity.StudySession{
		Id:             uuid.New(),
		UserId:         userId,
		Title:          title,
		LastAccessedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	return session
}

func TestConversationMessageOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationMessageRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	sessionId := uuid.New()

	contents := []string{"first", "second", "third", "fourth"}
	roles := []chat.Role{chat.RoleHuman, chat.RoleAssistant, chat.RoleHuman, chat.RoleAssistant}
	for i, c := range contents {
		require.NoError(t, repo.Create(ctx, &entity.ConversationMessage{
			UserId:    userId,
			SessionId: sessionId,
			Role:      roles[i],
			Content:   c,
		}))
	}

	t.Run("full history chronological", func(t *testing.T) {
		msgs, err := repo.FindRecent(ctx, userId, sessionId, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 4)
		for i, m := range msgs {
			assert.Equal(t, contents[i], m.Content)
			assert.Equal(t, roles[i], m.Role)
		}
	})

	t.Run("limit returns newest suffix in order", func(t *testing.T) {
		msgs, err := repo.FindRecent(ctx, userId, sessionId, 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "third", msgs[0].Content)
		assert.Equal(t, "fourth", msgs[1].Content)
	})

	t.Run("limit larger than log returns everything", func(t *testing.T) {
		msgs, err := repo.FindRecent(ctx, userId, sessionId, 100)
		require.NoError(t, err)
		assert.Len(t, msgs, 4)
	})
}

func TestConversationMessageScopeIsolation(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationMessageRepository(db)
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	sessionId := uuid.New() // same session id under two users

	require.NoError(t, repo.Create(ctx, &entity.ConversationMessage{
		UserId: userA, SessionId: sessionId, Role: chat.RoleHuman, Content: "from A",
	}))
	require.NoError(t, repo.Create(ctx, &entity.ConversationMessage{
		UserId: userB, SessionId: sessionId, Role: chat.RoleHuman, Content: "from B",
	}))

	msgsA, err := repo.FindRecent(ctx, userA, sessionId, 0)
	require.NoError(t, err)
	require.Len(t, msgsA, 1)
	assert.Equal(t, "from A", msgsA[0].Content)

	msgsB, err := repo.FindRecent(ctx, userB, sessionId, 0)
	require.NoError(t, err)
	require.Len(t, msgsB, 1)
	assert.Equal(t, "from B", msgsB[0].Content)
}

func TestConversationMessageDeleteByScope(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationMessageRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	keepSession := uuid.New()
	clearSession := uuid.New()

	for _, sid := range []uuid.UUID{keepSession, clearSession} {
		require.NoError(t, repo.Create(ctx, &entity.ConversationMessage{
			UserId: userId, SessionId: sid, Role: chat.RoleHuman, Content: "hello",
		}))
	}

	require.NoError(t, repo.DeleteByScope(ctx, userId, clearSession))

	cleared, err := repo.FindRecent(ctx, userId, clearSession, 0)
	require.NoError(t, err)
	assert.Empty(t, cleared)

	kept, err := repo.FindRecent(ctx, userId, keepSession, 0)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestSnapshotUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationSnapshotRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	sessionId := uuid.New()

	first := &entity.ConversationSnapshot{
		Id:        uuid.New(),
		UserId:    userId,
		SessionId: sessionId,
		ChatState: []byte(`{"query":"q1","messages":[],"context":[],"response":""}`),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &entity.ConversationSnapshot{
		Id:               uuid.New(),
		UserId:           userId,
		SessionId:        sessionId,
		ChatState:        []byte(`{"query":"q2","messages":[],"context":[],"response":"r2"}`),
		VectorstoreReady: true,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	found, err := repo.FindOne(ctx, specification.ByScope{UserID: userId, SessionID: sessionId})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Contains(t, string(found.ChatState), "q2")
	assert.True(t, found.VectorstoreReady)

	var count int64
	require.NoError(t, db.Model(&model.ConversationSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSnapshotSetVectorstoreReady(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationSnapshotRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	sessionId := uuid.New()

	require.NoError(t, repo.Upsert(ctx, &entity.ConversationSnapshot{
		Id: uuid.New(), UserId: userId, SessionId: sessionId,
	}))
	require.NoError(t, repo.SetVectorstoreReady(ctx, userId, sessionId, true))

	found, err := repo.FindOne(ctx, specification.ByScope{UserID: userId, SessionID: sessionId})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.VectorstoreReady)
}

func TestArtifactUpsertOverwritesPerType(t *testing.T) {
	db := openTestDB(t)
	repo := NewGeneratedArtifactRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	sessionId := uuid.New()

	require.NoError(t, repo.Upsert(ctx, &entity.GeneratedArtifact{
		Id: uuid.New(), UserId: userId, SessionId: sessionId,
		ContentType: entity.ArtifactTypeNotes, Content: "notes v1",
	}))
	require.NoError(t, repo.Upsert(ctx, &entity.GeneratedArtifact{
		Id: uuid.New(), UserId: userId, SessionId: sessionId,
		ContentType: entity.ArtifactTypeMCQs, Content: "mcqs v1",
	}))
	require.NoError(t, repo.Upsert(ctx, &entity.GeneratedArtifact{
		Id: uuid.New(), UserId: userId, SessionId: sessionId,
		ContentType: entity.ArtifactTypeNotes, Content: "notes v2",
	}))

	notes, err := repo.FindOne(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
		specification.ByContentType{ContentType: string(entity.ArtifactTypeNotes)},
	)
	require.NoError(t, err)
	require.NotNil(t, notes)
	assert.Equal(t, "notes v2", notes.Content)

	mcqs, err := repo.FindOne(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
		specification.ByContentType{ContentType: string(entity.ArtifactTypeMCQs)},
	)
	require.NoError(t, err)
	require.NotNil(t, mcqs)
	assert.Equal(t, "mcqs v1", mcqs.Content)

	var count int64
	require.NoError(t, db.Model(&model.GeneratedArtifact{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSessionListingWithMessageCount(t *testing.T) {
	db := openTestDB(t)
	sessionRepo := NewStudySessionRepository(db)
	msgRepo := NewConversationMessageRepository(db)
	ctx := context.Background()

	userId := uuid.New()

	older := &entity.StudySession{
		Id: uuid.New(), UserId: userId, Title: "older",
		LastAccessedAt: time.Now().Add(-2 * time.Hour),
	}
	newer := &entity.StudySession{
		Id: uuid.New(), UserId: userId, Title: "newer",
		LastAccessedAt: time.Now(),
	}
	require.NoError(t, sessionRepo.Create(ctx, older))
	require.NoError(t, sessionRepo.Create(ctx, newer))

	for i := 0; i < 3; i++ {
		require.NoError(t, msgRepo.Create(ctx, &entity.ConversationMessage{
			UserId: userId, SessionId: older.Id, Role: chat.RoleHuman, Content: "m",
		}))
	}

	// Another user's session must not appear.
	newSession(t, db, uuid.New(), "other user")

	summaries, err := sessionRepo.FindAllWithMessageCount(ctx, userId)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer", summaries[0].Title)
	assert.Equal(t, int64(0), summaries[0].MessageCount)
	assert.Equal(t, "older", summaries[1].Title)
	assert.Equal(t, int64(3), summaries[1].MessageCount)
}

func TestSessionTouchBumpsLastAccessed(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudySessionRepository(db)
	ctx := context.Background()

	session := newSession(t, db, uuid.New(), "study")
	stale := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(&model.StudySession{}).
		Where("id = ?", session.Id).
		Update("last_accessed_at", stale).Error)

	require.NoError(t, repo.Touch(ctx, session.Id))

	found, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.LastAccessedAt.After(stale))
}

func TestSessionFindOneMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudySessionRepository(db)

	found, err := repo.FindOne(context.Background(), specification.ByID{ID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAuthTokenRevocation(t *testing.T) {
	db := openTestDB(t)
	repo := NewAuthTokenRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	token := &entity.AuthToken{
		Id:        uuid.New(),
		UserId:    userId,
		TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, token))

	found, err := repo.FindOne(ctx, specification.ByTokenHash{Hash: "hash-1"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsActive(time.Now()))

	require.NoError(t, repo.Revoke(ctx, "hash-1"))

	found, err = repo.FindOne(ctx, specification.ByTokenHash{Hash: "hash-1"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Revoked)
	assert.False(t, found.IsActive(time.Now()))
}

func TestAuthTokenDeleteExpired(t *testing.T) {
	db := openTestDB(t)
	repo := NewAuthTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.AuthToken{
		Id: uuid.New(), UserId: uuid.New(), TokenHash: "expired",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &entity.AuthToken{
		Id: uuid.New(), UserId: uuid.New(), TokenHash: "live",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	purged, err := repo.DeleteExpiredBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	live, err := repo.FindOne(ctx, specification.ByTokenHash{Hash: "live"})
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestDocumentChunkReplaceFlow(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentChunkRepository(db)
	ctx := context.Background()

	userId := uuid.New()
	sessionId := uuid.New()
	docId := uuid.New()

	chunks := []*entity.DocumentChunk{
		{UserId: userId, SessionId: sessionId, DocumentId: docId, ChunkIndex: 0, Content: "a"},
		{UserId: userId, SessionId: sessionId, DocumentId: docId, ChunkIndex: 1, Content: "b"},
	}
	require.NoError(t, repo.CreateBatch(ctx, chunks))

	all, err := repo.FindAll(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
		specification.OrderBy{Field: "id"},
	)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Content)

	require.NoError(t, repo.DeleteByDocument(ctx, docId))
	count, err := repo.Count(ctx, specification.ByScope{UserID: userId, SessionID: sessionId})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
