package repos

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
)

type AdminUserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.AdminUser) (*types.AdminUser, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AdminUser, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.AdminUser, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type adminUserRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdminUserRepo(db *gorm.DB, baseLog *logger.Logger) AdminUserRepo {
	return &adminUserRepo{
		db:  db,
		log: baseLog.With("repo", "AdminUserRepo"),
	}
}

func (r *adminUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.AdminUser) (*types.AdminUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if user == nil {
		return nil, errors.New("admin user is nil")
	}
	if err := transaction.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *adminUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AdminUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var user types.AdminUser
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, nil
	}
	return &user, nil
}

func (r *adminUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.AdminUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if email == "" {
		return nil, nil
	}
	var user types.AdminUser
	err := transaction.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, nil
	}
	return &user, nil
}

func (r *adminUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.AdminUser{}).
		Where("id = ?", id).
		Updates(updates).Error
}
