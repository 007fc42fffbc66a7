package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

// Conversion links an analytics session to a concrete outcome such as a
// contact submission or waitlist signup. SourceID points at the row in the
// table named by Type.
type Conversion struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SiteID    uuid.UUID      `gorm:"type:uuid;not null;index;column:site_id" json:"site_id"`
	SessionID string         `gorm:"index;column:session_id" json:"session_id,omitempty"`
	VisitorID string         `gorm:"index;column:visitor_id" json:"visitor_id,omitempty"`
	Type      string         `gorm:"not null;index;column:type" json:"type"`
	SourceID  *uuid.UUID     `gorm:"type:uuid;column:source_id" json:"source_id,omitempty"`
	Value     float64        `gorm:"not null;default:0;column:value" json:"value"`
	Path      string         `gorm:"column:path" json:"path,omitempty"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (Conversion) TableName() string {
	return "conversion"
}
