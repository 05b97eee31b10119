package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStudyService(t *testing.T, factory unitofwork.RepositoryFactory, sessions ISessionService, engine *fakeEngine) IStudyService {
	t.Helper()
	orchestrator := pipeline.New(engine, newFakeIndex(), nopLogger{}, 2, 20)
	return NewStudyService(factory, sessions, orchestrator, nopLogger{}, 0)
}

func seedChunks(t *testing.T, factory unitofwork.RepositoryFactory, userId, sessionId uuid.UUID, contents ...string) {
	t.Helper()
	uow := factory.NewUnitOfWork(context.Background())
	docId := uuid.New()
	chunks := make([]*entity.DocumentChunk, 0, len(contents))
	for i, c := range contents {
		chunks = append(chunks, &entity.DocumentChunk{
			UserId: userId, SessionId: sessionId, DocumentId: docId,
			ChunkIndex: i, Content: c,
		})
	}
	require.NoError(t, uow.DocumentChunkRepository().CreateBatch(context.Background(), chunks))
}

// wellFormedMCQs builds text that passes every structural check, so warning
// assertions stay about the content under test.
func wellFormedMCQs() string {
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "%d. Question %d?\n", i, i)
		for _, opt := range []string{"A", "B", "C", "D"} {
			fmt.Fprintf(&b, "%s) option\n", opt)
		}
	}
	b.WriteString("Answer Key:\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "%d. A\n", i)
	}
	return b.String()
}

func TestGenerateNotesPersistsArtifact(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	engine := &fakeEngine{response: "## Key points\n- entropy rises"}
	svc := newTestStudyService(t, factory, sessions, engine)
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "thermo")
	require.NoError(t, err)
	seedChunks(t, factory, userId, session.Id, "first law", "second law")

	out, err := svc.GenerateNotes(ctx, userId, session.Id)
	require.NoError(t, err)
	assert.Equal(t, engine.response, out.Content)
	assert.Equal(t, string(entity.ArtifactTypeNotes), out.ContentType)
	assert.Empty(t, out.Warnings)

	// The whole corpus went into the prompt.
	require.NotEmpty(t, engine.lastInput)
	prompt := engine.lastInput[0].Content
	assert.Contains(t, prompt, "first law")
	assert.Contains(t, prompt, "second law")

	stored, err := svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactTypeNotes)
	require.NoError(t, err)
	assert.Equal(t, engine.response, stored.Content)
}

func TestGenerateNotesOverwritesPrevious(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	engine := &fakeEngine{response: "notes v1"}
	svc := newTestStudyService(t, factory, sessions, engine)
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "rewrite")
	require.NoError(t, err)
	seedChunks(t, factory, userId, session.Id, "material")

	_, err = svc.GenerateNotes(ctx, userId, session.Id)
	require.NoError(t, err)

	engine.response = "notes v2"
	_, err = svc.GenerateNotes(ctx, userId, session.Id)
	require.NoError(t, err)

	stored, err := svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactTypeNotes)
	require.NoError(t, err)
	assert.Equal(t, "notes v2", stored.Content)
}

func TestGenerateNotesAndMCQsCoexist(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	engine := &fakeEngine{response: "notes content"}
	svc := newTestStudyService(t, factory, sessions, engine)
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "both")
	require.NoError(t, err)
	seedChunks(t, factory, userId, session.Id, "material")

	_, err = svc.GenerateNotes(ctx, userId, session.Id)
	require.NoError(t, err)

	engine.response = wellFormedMCQs()
	_, err = svc.GenerateMCQs(ctx, userId, session.Id)
	require.NoError(t, err)

	notes, err := svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactTypeNotes)
	require.NoError(t, err)
	assert.Equal(t, "notes content", notes.Content)

	mcqs, err := svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactTypeMCQs)
	require.NoError(t, err)
	assert.Equal(t, engine.response, mcqs.Content)
}

func TestGenerateMCQsReportsShapeWarnings(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	engine := &fakeEngine{response: "just two questions:\n1. one?\n2. two?"}
	svc := newTestStudyService(t, factory, sessions, engine)
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "short quiz")
	require.NoError(t, err)
	seedChunks(t, factory, userId, session.Id, "material")

	out, err := svc.GenerateMCQs(ctx, userId, session.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warnings)
	// The content is stored verbatim despite the warnings.
	assert.Equal(t, engine.response, out.Content)
}

func TestGenerateWithEmptyCorpus(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	svc := newTestStudyService(t, factory, sessions, &fakeEngine{response: "x"})
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "empty")
	require.NoError(t, err)

	_, err = svc.GenerateNotes(ctx, userId, session.Id)
	require.Error(t, err)

	var httpErr *serverutils.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, fiber.StatusUnprocessableEntity, httpErr.Code)
}

func TestGenerateFailurePersistsNothing(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	engine := &fakeEngine{err: errors.New("model unavailable")}
	svc := newTestStudyService(t, factory, sessions, engine)
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "failed")
	require.NoError(t, err)
	seedChunks(t, factory, userId, session.Id, "material")

	_, err = svc.GenerateNotes(ctx, userId, session.Id)
	require.Error(t, err)

	var httpErr *serverutils.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, fiber.StatusBadGateway, httpErr.Code)

	_, err = svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactTypeNotes)
	require.Error(t, err)
}

func TestGetArtifactValidation(t *testing.T) {
	_, factory := openTestFactory(t)
	sessions := newTestSessionService(t, factory, newFakeIndex())
	svc := newTestStudyService(t, factory, sessions, &fakeEngine{response: "x"})
	ctx := context.Background()

	userId := seedUser(t, factory)
	session, err := sessions.CreateSession(ctx, userId, "validation")
	require.NoError(t, err)

	_, err = svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactType("poems"))
	var httpErr *serverutils.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, fiber.StatusBadRequest, httpErr.Code)

	_, err = svc.GetArtifact(ctx, userId, session.Id, entity.ArtifactTypeNotes)
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, fiber.StatusNotFound, httpErr.Code)
}
