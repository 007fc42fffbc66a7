package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type Event struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID     uuid.UUID      `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	SessionID  string         `gorm:"not null;index;column:session_id" json:"session_id"`
	VisitorID  string         `gorm:"index;column:visitor_id" json:"visitor_id,omitempty"`
	Name       string         `gorm:"not null;index;column:name" json:"name"`
	Category   string         `gorm:"column:category" json:"category,omitempty"`
	Label      string         `gorm:"column:label" json:"label,omitempty"`
	Value      float64        `gorm:"not null;default:0;column:value" json:"value"`
	Path       string         `gorm:"column:path" json:"path,omitempty"`
	Properties datatypes.JSON `gorm:"column:properties;type:jsonb" json:"properties,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (Event) TableName() string {
	return "event"
}
