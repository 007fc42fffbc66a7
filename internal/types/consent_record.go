package types

import (
	"github.com/google/uuid"
	"time"
)

// ConsentRecord is append-only. Revoking consent writes a new row with
// Granted=false rather than mutating the old one, so the full consent
// history survives audits.
type ConsentRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID        uuid.UUID `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	Email         string    `gorm:"not null;index;column:email" json:"email"`
	ConsentType   string    `gorm:"not null;index;column:consent_type" json:"consent_type"`
	Granted       bool      `gorm:"not null;column:granted" json:"granted"`
	PolicyVersion string    `gorm:"column:policy_version" json:"policy_version,omitempty"`
	IPAddress     string    `gorm:"column:ip_address" json:"-"`
	UserAgent     string    `gorm:"column:user_agent" json:"-"`
	CreatedAt     time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (ConsentRecord) TableName() string {
	return "consent_record"
}
