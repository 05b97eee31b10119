package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/chat"
	"ai-tutor-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGormConnection walks the core persistence path against a real
// Postgres: user, session, message log and snapshot round trip.
func TestGormConnection(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(ctx)

	user := &entity.User{
		Id:           uuid.New(),
		Username:     "it_" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@integration.test",
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	session := &entity.StudySession{
		Id:             uuid.New(),
		UserId:         user.Id,
		Title:          "integration",
		LastAccessedAt: time.Now(),
	}
	require.NoError(t, uow.StudySessionRepository().Create(ctx, session))

	require.NoError(t, uow.ConversationMessageRepository().Create(ctx, &entity.ConversationMessage{
		UserId:    user.Id,
		SessionId: session.Id,
		Role:      chat.RoleHuman,
		Content:   "hello",
	}))
	require.NoError(t, uow.ConversationMessageRepository().Create(ctx, &entity.ConversationMessage{
		UserId:    user.Id,
		SessionId: session.Id,
		Role:      chat.RoleAssistant,
		Content:   "hi there",
	}))

	messages, err := uow.ConversationMessageRepository().FindRecent(ctx, user.Id, session.Id, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chat.RoleHuman, messages[0].Role)
	assert.Equal(t, chat.RoleAssistant, messages[1].Role)

	state := chat.NewState("integration prompt")
	state.Append(chat.RoleHuman, "hello")
	serialized, err := chat.Serialize(state)
	require.NoError(t, err)

	require.NoError(t, uow.ConversationSnapshotRepository().Upsert(ctx, &entity.ConversationSnapshot{
		Id:        uuid.New(),
		UserId:    user.Id,
		SessionId: session.Id,
		ChatState: serialized,
	}))

	snapshot, err := uow.ConversationSnapshotRepository().FindOne(ctx,
		specification.ByScope{UserID: user.Id, SessionID: session.Id},
	)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	restored, err := chat.Deserialize(snapshot.ChatState)
	require.NoError(t, err)
	assert.Len(t, restored.Messages, 2)

	// Cleanup
	require.NoError(t, uow.ConversationMessageRepository().DeleteByScope(ctx, user.Id, session.Id))
	require.NoError(t, uow.ConversationSnapshotRepository().DeleteByScope(ctx, user.Id, session.Id))
	require.NoError(t, uow.StudySessionRepository().DeleteUnscoped(ctx, session.Id))
}
