package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type Lead struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_lead_site_email;column:site_id" json:"site_id"`
	Email          string         `gorm:"not null;uniqueIndex:uq_lead_site_email;column:email" json:"email"`
	Name           string         `gorm:"column:name" json:"name,omitempty"`
	Phone          string         `gorm:"column:phone" json:"phone,omitempty"`
	Company        string         `gorm:"column:company" json:"company,omitempty"`
	JobTitle       string         `gorm:"column:job_title" json:"job_title,omitempty"`
	Industry       string         `gorm:"column:industry" json:"industry,omitempty"`
	Source         string         `gorm:"index;column:source" json:"source,omitempty"`
	Medium         string         `gorm:"column:medium" json:"medium,omitempty"`
	Campaign       string         `gorm:"column:campaign" json:"campaign,omitempty"`
	LandingPage    string         `gorm:"column:landing_page" json:"landing_page,omitempty"`
	Score          int            `gorm:"not null;default:0;index;column:score" json:"score"`
	Status         string         `gorm:"not null;default:'new';index;column:status" json:"status"`
	LifecycleStage string         `gorm:"not null;default:'lead';column:lifecycle_stage" json:"lifecycle_stage"`
	ConvertedAt    *time.Time     `gorm:"column:converted_at" json:"converted_at,omitempty"`
	CRMProvider    string         `gorm:"column:crm_provider" json:"crm_provider,omitempty"`
	CRMExternalID  string         `gorm:"column:crm_external_id" json:"crm_external_id,omitempty"`
	CRMSyncedAt    *time.Time     `gorm:"column:crm_synced_at" json:"crm_synced_at,omitempty"`
	CRMSyncError   string         `gorm:"column:crm_sync_error" json:"crm_sync_error,omitempty"`
	Notes          string         `gorm:"column:notes" json:"notes,omitempty"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Lead) TableName() string {
	return "lead"
}
