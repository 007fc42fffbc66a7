package types

import (
	"github.com/google/uuid"
	"time"
)

// PageView rows are written by the public tracking endpoint. They are
// append-only and swept by the retention job.
type PageView struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID      uuid.UUID `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	SessionID   string    `gorm:"not null;index;column:session_id" json:"session_id"`
	VisitorID   string    `gorm:"index;column:visitor_id" json:"visitor_id,omitempty"`
	Path        string    `gorm:"not null;index;column:path" json:"path"`
	Title       string    `gorm:"column:title" json:"title,omitempty"`
	Referrer    string    `gorm:"column:referrer" json:"referrer,omitempty"`
	UTMSource   string    `gorm:"column:utm_source" json:"utm_source,omitempty"`
	UTMMedium   string    `gorm:"column:utm_medium" json:"utm_medium,omitempty"`
	UTMCampaign string    `gorm:"column:utm_campaign" json:"utm_campaign,omitempty"`
	UTMTerm     string    `gorm:"column:utm_term" json:"utm_term,omitempty"`
	UTMContent  string    `gorm:"column:utm_content" json:"utm_content,omitempty"`
	DeviceType  string    `gorm:"column:device_type" json:"device_type,omitempty"`
	Browser     string    `gorm:"column:browser" json:"browser,omitempty"`
	OS          string    `gorm:"column:os" json:"os,omitempty"`
	// Only a sha256 of the client address is kept; the raw IP never lands
	// in this table.
	IPAddressHash string    `gorm:"column:ip_address_hash" json:"-"`
	UserAgent     string    `gorm:"column:user_agent" json:"-"`
	CreatedAt     time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (PageView) TableName() string {
	return "page_view"
}
