package repos

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"time"
)

type AdminTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, token *types.AdminToken) (*types.AdminToken, error)
	GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.AdminToken, error)
	Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	RevokeAllForAdmin(ctx context.Context, tx *gorm.DB, adminUserID uuid.UUID) error
	DeleteExpired(ctx context.Context, tx *gorm.DB) (int64, error)
}

type adminTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdminTokenRepo(db *gorm.DB, baseLog *logger.Logger) AdminTokenRepo {
	return &adminTokenRepo{
		db:  db,
		log: baseLog.With("repo", "AdminTokenRepo"),
	}
}

func (r *adminTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.AdminToken) (*types.AdminToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if token == nil {
		return nil, errors.New("token is nil")
	}
	if err := transaction.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *adminTokenRepo) GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.AdminToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if refreshToken == "" {
		return nil, nil
	}
	var token types.AdminToken
	err := transaction.WithContext(ctx).
		Where("refresh_token = ? AND revoked = ?", refreshToken, false).
		Limit(1).
		Find(&token).Error
	if err != nil {
		return nil, err
	}
	if token.ID == uuid.Nil {
		return nil, nil
	}
	return &token, nil
}

func (r *adminTokenRepo) Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.AdminToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"revoked": true, "updated_at": time.Now()}).Error
}

func (r *adminTokenRepo) RevokeAllForAdmin(ctx context.Context, tx *gorm.DB, adminUserID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if adminUserID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.AdminToken{}).
		Where("admin_user_id = ? AND revoked = ?", adminUserID, false).
		Updates(map[string]interface{}{"revoked": true, "updated_at": time.Now()}).Error
}

func (r *adminTokenRepo) DeleteExpired(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&types.AdminToken{})
	return res.RowsAffected, res.Error
}
