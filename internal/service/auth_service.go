package service

import (
	"context"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/events"
	pktNats "ai-tutor-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, rawToken string) error
	Me(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	rdb            *redis.Client
	logger         logger.ILogger
	jwtSecret      string
	tokenTTL       time.Duration
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
	rdb *redis.Client,
	log logger.ILogger,
	jwtSecret string,
	tokenTTLHours int,
) IAuthService {
	if tokenTTLHours <= 0 {
		tokenTTLHours = 168 // 7 days
	}
	return &authService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		rdb:            rdb,
		logger:         log,
		jwtSecret:      jwtSecret,
		tokenTTL:       time.Duration(tokenTTLHours) * time.Hour,
	}
}

func userToResponse(user *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		Id:          user.Id,
		Username:    user.Username,
		Email:       user.Email,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, serverutils.NewHttpError(fiber.StatusConflict, "Username already taken")
	}

	existing, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, serverutils.NewHttpError(fiber.StatusConflict, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	return userToResponse(user), nil
}

// Login verifies credentials and issues one bearer token: an HS256 JWT whose
// sha256 hash is stored server-side so logout can kill it before the JWT
// expiry does. The validity window is fixed at issuance.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.NewHttpError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, serverutils.NewHttpError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	tokenId := uuid.New()
	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"user_id":  user.Id.String(),
		"token_id": tokenId.String(),
		"exp":      expiresAt.Unix(),
	}
	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	tokenRecord := &entity.AuthToken{
		Id:        tokenId,
		UserId:    user.Id,
		TokenHash: serverutils.HashToken(signedToken),
		ExpiresAt: expiresAt,
	}
	if err := uow.AuthTokenRepository().Create(ctx, tokenRecord); err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		s.logger.Warn("Auth", "Failed to stamp last login", map[string]interface{}{
			"user_id": user.Id, "error": err.Error(),
		})
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.BaseEvent{
			Type:       events.UserLogin,
			Data:       map[string]interface{}{"user_id": user.Id.String()},
			OccurredAt: now,
		})
	}

	return &dto.LoginResponse{
		Token:     signedToken,
		ExpiresAt: expiresAt,
		User:      *userToResponse(user),
	}, nil
}

// Logout revokes the token row and deletes its cache key, so resolution
// fails on every instance immediately, not just after the cache entry ages
// out.
func (s *authService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return serverutils.NewHttpError(fiber.StatusUnauthorized, "Missing token")
	}
	hash := serverutils.HashToken(rawToken)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AuthTokenRepository().Revoke(ctx, hash); err != nil {
		return err
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, serverutils.TokenCacheKey(hash)).Err(); err != nil {
			s.logger.Warn("Auth", "Failed to evict token cache entry", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.NewHttpError(fiber.StatusNotFound, "User not found")
	}
	return userToResponse(user), nil
}

// PurgeExpiredTokens deletes token rows whose expiry has passed. Expired
// tokens already fail validation; this keeps the table from growing without
// bound. Run from the retention sweep.
func (s *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	purged, err := uow.AuthTokenRepository().DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("Auth", "Purged expired tokens", map[string]interface{}{
			"count": purged,
		})
	}
	return purged, nil
}
