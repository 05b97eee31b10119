package serverutils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// HashToken returns the hex sha256 of a raw bearer token. Only this hash is
// stored and cached; the raw token never leaves the request.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenCacheKey is the Redis key marking a token hash as checked-and-active.
// Logout deletes it, which makes revocation immediate on every instance.
func TokenCacheKey(hash string) string {
	return "auth:token:" + hash
}

// AuthMiddleware resolves the bearer token on protected routes: signature
// and expiry from the JWT itself, then liveness against the auth_tokens row
// (Redis-cached). The resolved user id lands in Locals("user_id") and is the
// sole identity every downstream operation uses.
type AuthMiddleware struct {
	jwtSecret  []byte
	uowFactory unitofwork.RepositoryFactory
	rdb        *redis.Client
	log        logger.ILogger
}

func NewAuthMiddleware(jwtSecret string, uowFactory unitofwork.RepositoryFactory, rdb *redis.Client, log logger.ILogger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:  []byte(jwtSecret),
		uowFactory: uowFactory,
		rdb:        rdb,
		log:        log,
	}
}

// ResolveToken validates a raw token end to end and returns the owning user
// id. Shared by the HTTP middleware and the websocket handshake.
func (m *AuthMiddleware) ResolveToken(ctx context.Context, raw string) (uuid.UUID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, NewHttpError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, NewHttpError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	userIdStr, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, NewHttpError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	if err := m.checkTokenRecord(ctx, raw); err != nil {
		return uuid.Nil, err
	}

	return userId, nil
}

// checkTokenRecord consults the server-side token row so logout takes effect
// before the JWT expiry does. A Redis hit skips the database; a miss falls
// through and repopulates the cache.
func (m *AuthMiddleware) checkTokenRecord(ctx context.Context, raw string) error {
	hash := HashToken(raw)

	if m.rdb != nil {
		if _, err := m.rdb.Get(ctx, TokenCacheKey(hash)).Result(); err == nil {
			return nil
		} else if err != redis.Nil {
			m.log.Warn("Auth", "Token cache unavailable, checking database", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	uow := m.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.AuthTokenRepository().FindOne(ctx, specification.ByTokenHash{Hash: hash})
	if err != nil {
		return WrapHttpError(fiber.StatusInternalServerError, "Internal server error", err)
	}
	if !record.IsActive(time.Now()) {
		return NewHttpError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	if m.rdb != nil {
		ttl := time.Until(record.ExpiresAt)
		if ttl > 0 {
			if err := m.rdb.Set(ctx, TokenCacheKey(hash), "1", ttl).Err(); err != nil {
				m.log.Warn("Auth", "Failed to cache token", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return nil
}

// Handler is the fiber middleware for Authorization: Bearer routes.
func (m *AuthMiddleware) Handler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			return NewHttpError(fiber.StatusUnauthorized, "Missing token")
		}

		userId, err := m.ResolveToken(ctx.Context(), authHeader[7:])
		if err != nil {
			return err
		}

		ctx.Locals("user_id", userId)
		ctx.Locals("token", authHeader[7:])
		return ctx.Next()
	}
}

// UserIdFromCtx reads the identity the middleware resolved. Handlers behind
// the middleware treat absence as a programming error surfaced as 401.
func UserIdFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	userId, ok := ctx.Locals("user_id").(uuid.UUID)
	if !ok || userId == uuid.Nil {
		return uuid.Nil, NewHttpError(fiber.StatusUnauthorized, "Missing token")
	}
	return userId, nil
}
