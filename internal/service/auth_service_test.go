package service

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJwtSecret = "test-secret"

func newTestAuthService(t *testing.T, factory unitofwork.RepositoryFactory) IAuthService {
	t.Helper()
	return NewAuthService(factory, nil, nil, nopLogger{}, testJwtSecret, 1)
}

func registerRequest() *dto.RegisterRequest {
	suffix := uuid.NewString()[:8]
	return &dto.RegisterRequest{
		Username: "student_" + suffix,
		Email:    suffix + "@test.local",
		Password: "correct horse",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)
	ctx := context.Background()

	req := registerRequest()
	user, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req.Username, user.Username)
	assert.Nil(t, user.LastLoginAt)

	out, err := svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: req.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, user.Id, out.User.Id)
	assert.True(t, out.ExpiresAt.After(time.Now()))

	// The token is a valid HS256 JWT carrying the user id.
	parsed, err := jwt.Parse(out.Token, func(*jwt.Token) (interface{}, error) {
		return []byte(testJwtSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.Id.String(), claims["user_id"])

	me, err := svc.Me(ctx, user.Id)
	require.NoError(t, err)
	assert.NotNil(t, me.LastLoginAt)
}

func TestRegisterDuplicates(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)
	ctx := context.Background()

	req := registerRequest()
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	dupName := registerRequest()
	dupName.Username = req.Username
	_, err = svc.Register(ctx, dupName)
	require.EqualError(t, err, "Username already taken")

	var httpErr *serverutils.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, fiber.StatusConflict, httpErr.Code)

	dupEmail := registerRequest()
	dupEmail.Email = req.Email
	_, err = svc.Register(ctx, dupEmail)
	require.EqualError(t, err, "Email already registered")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, fiber.StatusConflict, httpErr.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)
	ctx := context.Background()

	req := registerRequest()
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	// Wrong password and unknown user read identically, and both carry a 401
	// so the error handler never degrades them to an opaque 500.
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: "wrong"})
	require.EqualError(t, err, "Invalid credentials")

	var httpErr *serverutils.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, fiber.StatusUnauthorized, httpErr.Code)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: req.Password})
	require.EqualError(t, err, "Invalid credentials")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, fiber.StatusUnauthorized, httpErr.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)
	ctx := context.Background()

	req := registerRequest()
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	out, err := svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: req.Password})
	require.NoError(t, err)

	hash := serverutils.HashToken(out.Token)
	uow := factory.NewUnitOfWork(ctx)
	row, err := uow.AuthTokenRepository().FindOne(ctx, specification.ByTokenHash{Hash: hash})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IsActive(time.Now()))

	require.NoError(t, svc.Logout(ctx, out.Token))

	row, err = uow.AuthTokenRepository().FindOne(ctx, specification.ByTokenHash{Hash: hash})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.False(t, row.IsActive(time.Now()))
}

func TestLoginTokensAreIndependent(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)
	ctx := context.Background()

	req := registerRequest()
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	first, err := svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: req.Password})
	require.NoError(t, err)
	second, err := svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: req.Password})
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	require.NoError(t, svc.Logout(ctx, first.Token))

	// Revoking one token leaves the other session alive.
	uow := factory.NewUnitOfWork(ctx)
	row, err := uow.AuthTokenRepository().FindOne(ctx,
		specification.ByTokenHash{Hash: serverutils.HashToken(second.Token)})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IsActive(time.Now()))
}

func TestPurgeExpiredTokensKeepsLiveSessions(t *testing.T) {
	db, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)
	ctx := context.Background()

	req := registerRequest()
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	stale, err := svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: req.Password})
	require.NoError(t, err)
	live, err := svc.Login(ctx, &dto.LoginRequest{Username: req.Username, Password: req.Password})
	require.NoError(t, err)

	staleHash := serverutils.HashToken(stale.Token)
	require.NoError(t, db.Model(&model.AuthToken{}).
		Where("token_hash = ?", staleHash).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	purged, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	uow := factory.NewUnitOfWork(ctx)
	row, err := uow.AuthTokenRepository().FindOne(ctx, specification.ByTokenHash{Hash: staleHash})
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = uow.AuthTokenRepository().FindOne(ctx,
		specification.ByTokenHash{Hash: serverutils.HashToken(live.Token)})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IsActive(time.Now()))
}

func TestMeUnknownUser(t *testing.T) {
	_, factory := openTestFactory(t)
	svc := newTestAuthService(t, factory)

	_, err := svc.Me(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = svc.Me(context.Background(), uuid.New())
	var httpErr *serverutils.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, fiber.StatusNotFound, httpErr.Code)
}
