package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type WaitlistEntry struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_waitlist_site_email;column:site_id" json:"site_id"`
	Email             string         `gorm:"not null;uniqueIndex:uq_waitlist_site_email;column:email" json:"email"`
	Name              string         `gorm:"column:name" json:"name,omitempty"`
	Company           string         `gorm:"column:company" json:"company,omitempty"`
	Role              string         `gorm:"column:role" json:"role,omitempty"`
	CompanySize       string         `gorm:"column:company_size" json:"company_size,omitempty"`
	Industry          string         `gorm:"column:industry" json:"industry,omitempty"`
	UseCase           string         `gorm:"column:use_case" json:"use_case,omitempty"`
	ReferralSource    string         `gorm:"column:referral_source" json:"referral_source,omitempty"`
	ReferralCode      string         `gorm:"uniqueIndex;not null;column:referral_code" json:"referral_code"`
	ReferredByID      *uuid.UUID     `gorm:"type:uuid;index;column:referred_by_id" json:"referred_by_id,omitempty"`
	ReferralCount     int            `gorm:"not null;default:0;column:referral_count" json:"referral_count"`
	Position          int            `gorm:"not null;default:0;column:position" json:"position"`
	PriorityScore     int            `gorm:"not null;default:0;index;column:priority_score" json:"priority_score"`
	Status            string         `gorm:"not null;default:'pending';index;column:status" json:"status"`
	EmailVerified     bool           `gorm:"not null;default:false;column:email_verified" json:"email_verified"`
	VerificationToken string         `gorm:"index;column:verification_token" json:"-"`
	InvitedAt         *time.Time     `gorm:"column:invited_at" json:"invited_at,omitempty"`
	ConvertedAt       *time.Time     `gorm:"column:converted_at" json:"converted_at,omitempty"`
	Notes             string         `gorm:"column:notes" json:"notes,omitempty"`
	CRMExternalID     string         `gorm:"column:crm_external_id" json:"crm_external_id,omitempty"`
	CRMSyncedAt       *time.Time     `gorm:"column:crm_synced_at" json:"crm_synced_at,omitempty"`
	IPAddress         string         `gorm:"column:ip_address" json:"-"`
	Metadata          datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entry"
}
