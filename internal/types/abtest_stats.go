package types

import (
	"github.com/google/uuid"
	"time"
)

// ABTestStats is a denormalized snapshot refreshed by the stats job so the
// dashboard never scans assignment tables on read.
type ABTestStats struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ABTestID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:ab_test_id" json:"ab_test_id"`
	ParticipantsA       int       `gorm:"not null;default:0;column:participants_a" json:"participants_a"`
	ParticipantsB       int       `gorm:"not null;default:0;column:participants_b" json:"participants_b"`
	ConversionsA        int       `gorm:"not null;default:0;column:conversions_a" json:"conversions_a"`
	ConversionsB        int       `gorm:"not null;default:0;column:conversions_b" json:"conversions_b"`
	ConversionRateA     float64   `gorm:"not null;default:0;column:conversion_rate_a" json:"conversion_rate_a"`
	ConversionRateB     float64   `gorm:"not null;default:0;column:conversion_rate_b" json:"conversion_rate_b"`
	ChiSquare           float64   `gorm:"not null;default:0;column:chi_square" json:"chi_square"`
	PValue              float64   `gorm:"not null;default:1;column:p_value" json:"p_value"`
	Confidence          float64   `gorm:"not null;default:0;column:confidence" json:"confidence"`
	SignificanceReached bool      `gorm:"not null;default:false;column:significance_reached" json:"significance_reached"`
	WinningVariant      string    `gorm:"column:winning_variant" json:"winning_variant,omitempty"`
	ComputedAt          time.Time `gorm:"not null;default:now();column:computed_at" json:"computed_at"`
	CreatedAt           time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ABTestStats) TableName() string {
	return "ab_test_stats"
}
