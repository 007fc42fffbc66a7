package types

import (
	"github.com/google/uuid"
	"time"
)

type DataRetentionPolicy struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_retention_site_data_type;column:site_id" json:"site_id"`
	DataType      string     `gorm:"not null;uniqueIndex:uq_retention_site_data_type;column:data_type" json:"data_type"`
	RetentionDays int        `gorm:"not null;column:retention_days" json:"retention_days"`
	IsActive      bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	LastRunAt     *time.Time `gorm:"column:last_run_at" json:"last_run_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (DataRetentionPolicy) TableName() string {
	return "data_retention_policy"
}
