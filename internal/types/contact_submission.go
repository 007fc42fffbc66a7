package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type ContactSubmission struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID        uuid.UUID      `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	Name          string         `gorm:"not null;column:name" json:"name"`
	Email         string         `gorm:"not null;index;column:email" json:"email"`
	Phone         string         `gorm:"column:phone" json:"phone,omitempty"`
	Company       string         `gorm:"column:company" json:"company,omitempty"`
	Subject       string         `gorm:"column:subject" json:"subject,omitempty"`
	Message       string         `gorm:"not null;column:message" json:"message"`
	FormType      string         `gorm:"not null;default:'contact';column:form_type" json:"form_type"`
	SourceURL     string         `gorm:"column:source_url" json:"source_url,omitempty"`
	IPAddress     string         `gorm:"column:ip_address" json:"-"`
	UserAgent     string         `gorm:"column:user_agent" json:"-"`
	Referrer      string         `gorm:"column:referrer" json:"referrer,omitempty"`
	SpamScore     float64        `gorm:"not null;default:0;column:spam_score" json:"spam_score"`
	IsSpam        bool           `gorm:"not null;default:false;index;column:is_spam" json:"is_spam"`
	Status        string         `gorm:"not null;default:'new';index;column:status" json:"status"`
	AssignedTo    string         `gorm:"column:assigned_to" json:"assigned_to,omitempty"`
	Notes         string         `gorm:"column:notes" json:"notes,omitempty"`
	CRMExternalID string         `gorm:"column:crm_external_id" json:"crm_external_id,omitempty"`
	CRMSyncedAt   *time.Time     `gorm:"column:crm_synced_at" json:"crm_synced_at,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ContactSubmission) TableName() string {
	return "contact_submission"
}
