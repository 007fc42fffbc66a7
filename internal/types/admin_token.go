package types

import (
	"github.com/google/uuid"
	"time"
)

type AdminToken struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdminUserID  uuid.UUID `gorm:"type:uuid;not null;index;column:admin_user_id" json:"admin_user_id"`
	RefreshToken string    `gorm:"uniqueIndex;not null;column:refresh_token" json:"-"`
	ExpiresAt    time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
	Revoked      bool      `gorm:"not null;default:false;column:revoked" json:"revoked"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AdminToken) TableName() string {
	return "admin_token"
}
