package implementation

import (
	"context"
	"errors"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AuthTokenRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewAuthTokenRepository(db *gorm.DB) contract.AuthTokenRepository {
	return &AuthTokenRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *AuthTokenRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AuthTokenRepositoryImpl) Create(ctx context.Context, token *entity.AuthToken) error {
	m := r.mapper.AuthTokenToModel(token)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*token = *r.mapper.AuthTokenToEntity(m)
	return nil
}

func (r *AuthTokenRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AuthToken, error) {
	var m model.AuthToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.AuthTokenToEntity(&m), nil
}

func (r *AuthTokenRepositoryImpl) Revoke(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&model.AuthToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (r *AuthTokenRepositoryImpl) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&model.AuthToken{})
	return result.RowsAffected, result.Error
}
