package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type WebhookConfig struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID     uuid.UUID      `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	Name       string         `gorm:"not null;column:name" json:"name"`
	URL        string         `gorm:"not null;column:url" json:"url"`
	Secret     string         `gorm:"not null;column:secret" json:"-"`
	Events     datatypes.JSON `gorm:"not null;column:events;type:jsonb" json:"events"`
	IsActive   bool           `gorm:"not null;default:true;index;column:is_active" json:"is_active"`
	MaxRetries int            `gorm:"not null;default:3;column:max_retries" json:"max_retries"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (WebhookConfig) TableName() string {
	return "webhook_config"
}
