package types

import (
	"github.com/google/uuid"
	"time"
)

type VariantAssignment struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ABTestID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_test_identifier;column:ab_test_id" json:"ab_test_id"`
	UserIdentifier string    `gorm:"not null;uniqueIndex:uq_assignment_test_identifier;column:user_identifier" json:"user_identifier"`
	Variant        string    `gorm:"not null;index;column:variant" json:"variant"`
	CreatedAt      time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (VariantAssignment) TableName() string {
	return "variant_assignment"
}
