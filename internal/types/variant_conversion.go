package types

import (
	"github.com/google/uuid"
	"time"
)

type VariantConversion struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ABTestID       uuid.UUID `gorm:"type:uuid;not null;index;column:ab_test_id" json:"ab_test_id"`
	UserIdentifier string    `gorm:"not null;index;column:user_identifier" json:"user_identifier"`
	Variant        string    `gorm:"not null;index;column:variant" json:"variant"`
	Goal           string    `gorm:"column:goal" json:"goal,omitempty"`
	Value          float64   `gorm:"not null;default:0;column:value" json:"value"`
	CreatedAt      time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (VariantConversion) TableName() string {
	return "variant_conversion"
}
