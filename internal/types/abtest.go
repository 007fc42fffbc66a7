package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type ABTest struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_ab_test_site_slug;column:site_id" json:"site_id"`
	Name            string         `gorm:"not null;column:name" json:"name"`
	Slug            string         `gorm:"not null;uniqueIndex:uq_ab_test_site_slug;column:slug" json:"slug"`
	Description     string         `gorm:"column:description" json:"description,omitempty"`
	Status          string         `gorm:"not null;default:'draft';index;column:status" json:"status"`
	TrafficSplit    int            `gorm:"not null;default:50;column:traffic_split" json:"traffic_split"`
	VariantAContent datatypes.JSON `gorm:"column:variant_a_content;type:jsonb" json:"variant_a_content,omitempty"`
	VariantBContent datatypes.JSON `gorm:"column:variant_b_content;type:jsonb" json:"variant_b_content,omitempty"`
	GoalEvent       string         `gorm:"column:goal_event" json:"goal_event,omitempty"`
	WinningVariant  string         `gorm:"column:winning_variant" json:"winning_variant,omitempty"`
	StartedAt       *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	EndedAt         *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ABTest) TableName() string {
	return "ab_test"
}
