package service

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/chat"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrCreateSessionIdempotent(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)

	first, err := svc.ResolveOrCreateSession(ctx, userId)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, constant.DefaultSessionTitle, first.Title)

	second, err := svc.ResolveOrCreateSession(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
}

func TestResolveOrCreateSessionPicksMostRecent(t *testing.T) {
	db, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)

	older, err := svc.CreateSession(ctx, userId, "older")
	require.NoError(t, err)
	backdateSession(t, db, older.Id, 48*time.Hour)

	newer, err := svc.CreateSession(ctx, userId, "newer")
	require.NoError(t, err)

	resolved, err := svc.ResolveOrCreateSession(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, newer.Id, resolved.Id)
}

func TestCreateSessionRequiresUser(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())

	_, err := svc.CreateSession(context.Background(), uuid.Nil, "orphan")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestRenameSessionForeignNoop(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	owner := seedUser(t, factory)
	stranger := seedUser(t, factory)

	session, err := svc.CreateSession(ctx, owner, "mine")
	require.NoError(t, err)

	// A rename by another user neither errors nor changes the title, so the
	// response shape never confirms the session id exists.
	require.NoError(t, svc.RenameSession(ctx, stranger, session.Id, "stolen"))

	found, err := svc.EnsureOwned(ctx, owner, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "mine", found.Title)
}

func TestEnsureOwnedForeignSessionNotFound(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	owner := seedUser(t, factory)
	stranger := seedUser(t, factory)

	session, err := svc.CreateSession(ctx, owner, "private")
	require.NoError(t, err)

	_, err = svc.EnsureOwned(ctx, stranger, session.Id)
	require.Error(t, err)
}

func TestVerifyOwnedServedFromCache(t *testing.T) {
	db, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, userId, "cached")
	require.NoError(t, err)

	require.NoError(t, svc.VerifyOwned(ctx, userId, session.Id))

	// A positive answer is cached: the check passes without a database read
	// even after the row is removed behind the service's back.
	require.NoError(t, db.Where("id = ?", session.Id).Delete(&model.StudySession{}).Error)
	require.NoError(t, svc.VerifyOwned(ctx, userId, session.Id))
}

func TestVerifyOwnedInvalidatedByDelete(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, userId, "doomed")
	require.NoError(t, err)

	require.NoError(t, svc.VerifyOwned(ctx, userId, session.Id))
	require.NoError(t, svc.DeleteSession(ctx, userId, session.Id))

	err = svc.VerifyOwned(ctx, userId, session.Id)
	var httpErr *serverutils.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, fiber.StatusNotFound, httpErr.Code)
}

func TestVerifyOwnedForeignSession(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	owner := seedUser(t, factory)
	stranger := seedUser(t, factory)

	session, err := svc.CreateSession(ctx, owner, "private")
	require.NoError(t, err)

	// The owner's cached entry never answers for another user.
	require.NoError(t, svc.VerifyOwned(ctx, owner, session.Id))
	require.Error(t, svc.VerifyOwned(ctx, stranger, session.Id))
	require.ErrorIs(t, svc.VerifyOwned(ctx, uuid.Nil, session.Id), ErrMissingUser)
}

func TestSaveMessageRejectsUnknownRole(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, userId, "chat")
	require.NoError(t, err)

	err = svc.SaveMessage(ctx, userId, session.Id, chat.Role("narrator"), "hm")
	assert.Error(t, err)
}

func TestDeleteSessionCascade(t *testing.T) {
	_, factory := openTestFactory(t)
	index := newFakeIndex()
	svc := newTestSessionService(t, factory, index)
	ctx := context.Background()

	userId := seedUser(t, factory)
	doomed, err := svc.CreateSession(ctx, userId, "doomed")
	require.NoError(t, err)
	kept, err := svc.CreateSession(ctx, userId, "kept")
	require.NoError(t, err)

	uow := factory.NewUnitOfWork(ctx)
	for _, sid := range []uuid.UUID{doomed.Id, kept.Id} {
		require.NoError(t, svc.SaveMessage(ctx, userId, sid, chat.RoleHuman, "q"))
		require.NoError(t, svc.SaveAppState(ctx, userId, sid, true, chat.NewState(constant.TutorSystemPrompt)))
		docId := uuid.New()
		require.NoError(t, uow.StoredDocumentRepository().Create(ctx, &entity.StoredDocument{
			Id: docId, UserId: userId, SessionId: sid,
			FileName: "notes.pdf", FilePath: "x", FileType: ".pdf", Status: entity.DocumentStatusIndexed,
		}))
		require.NoError(t, uow.DocumentChunkRepository().CreateBatch(ctx, []*entity.DocumentChunk{
			{UserId: userId, SessionId: sid, DocumentId: docId, ChunkIndex: 0, Content: "chunk"},
		}))
		require.NoError(t, uow.GeneratedArtifactRepository().Upsert(ctx, &entity.GeneratedArtifact{
			Id: uuid.New(), UserId: userId, SessionId: sid,
			ContentType: entity.ArtifactTypeNotes, Content: "notes",
		}))
	}

	require.NoError(t, svc.DeleteSession(ctx, userId, doomed.Id))

	_, err = svc.EnsureOwned(ctx, userId, doomed.Id)
	assert.Error(t, err)

	msgs, err := svc.GetConversationHistory(ctx, userId, doomed.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, ok, err := svc.GetAppState(ctx, userId, doomed.Id)
	require.NoError(t, err)
	assert.False(t, ok)

	docCount, err := uow.StoredDocumentRepository().Count(ctx,
		specification.ByScope{UserID: userId, SessionID: doomed.Id})
	require.NoError(t, err)
	assert.Zero(t, docCount)

	chunkCount, err := uow.DocumentChunkRepository().Count(ctx,
		specification.ByScope{UserID: userId, SessionID: doomed.Id})
	require.NoError(t, err)
	assert.Zero(t, chunkCount)

	require.Len(t, index.dropped, 1)
	assert.Equal(t, doomed.Id, index.dropped[0].SessionId)

	// Sibling session untouched.
	_, err = svc.EnsureOwned(ctx, userId, kept.Id)
	require.NoError(t, err)
	msgs, err = svc.GetConversationHistory(ctx, userId, kept.Id, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestDeleteSessionForeignIsNoop(t *testing.T) {
	_, factory := openTestFactory(t)
	index := newFakeIndex()
	svc := newTestSessionService(t, factory, index)
	ctx := context.Background()

	owner := seedUser(t, factory)
	stranger := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, owner, "safe")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, stranger, session.Id))

	_, err = svc.EnsureOwned(ctx, owner, session.Id)
	require.NoError(t, err)
	assert.Empty(t, index.dropped)
}

func TestResetConversationPreservesReadiness(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, userId, "reset me")
	require.NoError(t, err)

	state := chat.NewState(constant.TutorSystemPrompt)
	state.Append(chat.RoleHuman, "q")
	state.Append(chat.RoleAssistant, "a")
	require.NoError(t, svc.SaveMessage(ctx, userId, session.Id, chat.RoleHuman, "q"))
	require.NoError(t, svc.SaveMessage(ctx, userId, session.Id, chat.RoleAssistant, "a"))
	require.NoError(t, svc.SaveAppState(ctx, userId, session.Id, true, state))

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.GeneratedArtifactRepository().Upsert(ctx, &entity.GeneratedArtifact{
		Id: uuid.New(), UserId: userId, SessionId: session.Id,
		ContentType: entity.ArtifactTypeNotes, Content: "keep me",
	}))

	require.NoError(t, svc.ResetConversation(ctx, userId, session.Id))

	msgs, err := svc.GetConversationHistory(ctx, userId, session.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// Clearing the chat never touches generated study material.
	artifact, err := uow.GeneratedArtifactRepository().FindOne(ctx,
		specification.ByScope{UserID: userId, SessionID: session.Id},
		specification.ByContentType{ContentType: string(entity.ArtifactTypeNotes)},
	)
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.Equal(t, "keep me", artifact.Content)

	appState, ok, err := svc.GetAppState(ctx, userId, session.Id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, appState.VectorstoreReady)
	require.NotNil(t, appState.State)
	require.Len(t, appState.State.Messages, 1)
	assert.Equal(t, chat.RoleSystem, appState.State.Messages[0].Role)
}

func TestAppStateRoundTrip(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, userId, "snapshot")
	require.NoError(t, err)

	state := chat.NewState(constant.TutorSystemPrompt)
	state.Append(chat.RoleHuman, "what is entropy")
	state.Append(chat.RoleAssistant, "a measure of disorder")
	state.Response = "a measure of disorder"
	require.NoError(t, svc.SaveAppState(ctx, userId, session.Id, true, state))

	restored, ok, err := svc.GetAppState(ctx, userId, session.Id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, restored.VectorstoreReady)
	require.NotNil(t, restored.State)
	assert.Equal(t, state.Messages, restored.State.Messages)
	assert.Equal(t, state.Response, restored.State.Response)
}

func TestAppStateCorruptDegradesToNilState(t *testing.T) {
	db, factory := openTestFactory(t)
	svc := newTestSessionService(t, factory, newFakeIndex())
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := svc.CreateSession(ctx, userId, "corrupt")
	require.NoError(t, err)
	require.NoError(t, svc.SaveAppState(ctx, userId, session.Id, true, chat.NewState(constant.TutorSystemPrompt)))

	require.NoError(t, db.Model(&model.ConversationSnapshot{}).
		Where("user_id = ? AND session_id = ?", userId, session.Id).
		Update("chat_state", []byte("{not json")).Error)

	restored, ok, err := svc.GetAppState(ctx, userId, session.Id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, restored.VectorstoreReady)
	assert.Nil(t, restored.State)
}

func TestCleanupOldSessionsForUser(t *testing.T) {
	db, factory := openTestFactory(t)
	index := newFakeIndex()
	svc := newTestSessionService(t, factory, index)
	ctx := context.Background()

	userId := seedUser(t, factory)
	otherUser := seedUser(t, factory)

	stale, err := svc.CreateSession(ctx, userId, "stale")
	require.NoError(t, err)
	backdateSession(t, db, stale.Id, 40*24*time.Hour)

	fresh, err := svc.CreateSession(ctx, userId, "fresh")
	require.NoError(t, err)

	otherStale, err := svc.CreateSession(ctx, otherUser, "other stale")
	require.NoError(t, err)
	backdateSession(t, db, otherStale.Id, 40*24*time.Hour)

	purged, err := svc.CleanupOldSessionsForUser(ctx, userId, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = svc.EnsureOwned(ctx, userId, stale.Id)
	assert.Error(t, err)
	_, err = svc.EnsureOwned(ctx, userId, fresh.Id)
	require.NoError(t, err)

	// Another user's stale session is out of scope for a per-user cleanup.
	_, err = svc.EnsureOwned(ctx, otherUser, otherStale.Id)
	require.NoError(t, err)

	// The account-wide sweep catches it.
	purged, err = svc.CleanupOldSessions(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}
