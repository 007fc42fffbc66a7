package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

// Site is a tenant. Every public submission and analytics row hangs off a
// site, resolved per-request from the X-Site-Identifier header or the
// request origin.
type Site struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name              string         `gorm:"not null;column:name" json:"name"`
	Slug              string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Domain            string         `gorm:"index;not null;column:domain" json:"domain"`
	AdditionalDomains datatypes.JSON `gorm:"column:additional_domains;type:jsonb" json:"additional_domains,omitempty"`
	IsDefault         bool           `gorm:"not null;default:false;column:is_default" json:"is_default"`
	IsActive          bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	Settings          datatypes.JSON `gorm:"column:settings;type:jsonb" json:"settings,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Site) TableName() string {
	return "site"
}
