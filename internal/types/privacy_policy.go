package types

import (
	"github.com/google/uuid"
	"time"
)

type PrivacyPolicy struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_policy_site_version;column:site_id" json:"site_id"`
	Version       string    `gorm:"not null;uniqueIndex:uq_policy_site_version;column:version" json:"version"`
	Content       string    `gorm:"not null;column:content" json:"content"`
	EffectiveDate time.Time `gorm:"not null;column:effective_date" json:"effective_date"`
	IsActive      bool      `gorm:"not null;default:false;index;column:is_active" json:"is_active"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PrivacyPolicy) TableName() string {
	return "privacy_policy"
}
