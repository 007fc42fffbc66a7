package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type DeletionAuditLog struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID          uuid.UUID      `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	EmailHash       string         `gorm:"not null;index;column:email_hash" json:"email_hash"`
	RequestType     string         `gorm:"not null;column:request_type" json:"request_type"`
	DataTypes       datatypes.JSON `gorm:"column:data_types;type:jsonb" json:"data_types,omitempty"`
	RecordsAffected int            `gorm:"not null;default:0;column:records_affected" json:"records_affected"`
	RequestedBy     string         `gorm:"column:requested_by" json:"requested_by,omitempty"`
	Status          string         `gorm:"not null;default:'pending';column:status" json:"status"`
	CompletedAt     *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (DeletionAuditLog) TableName() string {
	return "deletion_audit_log"
}
