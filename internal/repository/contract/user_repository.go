package contract

import (
	"context"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

// AuthTokenRepository manages the server-side token records backing issued
// access tokens.
type AuthTokenRepository interface {
	Create(ctx context.Context, token *entity.AuthToken) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AuthToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
