package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type NewsletterSubscription struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_newsletter_site_email;column:site_id" json:"site_id"`
	Email             string         `gorm:"not null;uniqueIndex:uq_newsletter_site_email;column:email" json:"email"`
	Name              string         `gorm:"column:name" json:"name,omitempty"`
	Status            string         `gorm:"not null;default:'pending';index;column:status" json:"status"`
	Source            string         `gorm:"column:source" json:"source,omitempty"`
	ConfirmationToken string         `gorm:"index;column:confirmation_token" json:"-"`
	UnsubscribeToken  string         `gorm:"uniqueIndex;not null;column:unsubscribe_token" json:"-"`
	ConfirmedAt       *time.Time     `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	UnsubscribedAt    *time.Time     `gorm:"column:unsubscribed_at" json:"unsubscribed_at,omitempty"`
	BounceCount       int            `gorm:"not null;default:0;column:bounce_count" json:"bounce_count"`
	ComplaintCount    int            `gorm:"not null;default:0;column:complaint_count" json:"complaint_count"`
	LastBounceAt      *time.Time     `gorm:"column:last_bounce_at" json:"last_bounce_at,omitempty"`
	IPAddress         string         `gorm:"column:ip_address" json:"-"`
	Tags              datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (NewsletterSubscription) TableName() string {
	return "newsletter_subscription"
}
