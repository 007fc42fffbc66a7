package types

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

type WebhookEvent struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WebhookConfigID uuid.UUID      `gorm:"type:uuid;not null;index;column:webhook_config_id" json:"webhook_config_id"`
	EventType       string         `gorm:"not null;index;column:event_type" json:"event_type"`
	Payload         datatypes.JSON `gorm:"not null;column:payload;type:jsonb" json:"payload"`
	Status          string         `gorm:"not null;default:'pending';index;column:status" json:"status"`
	Attempts        int            `gorm:"not null;default:0;column:attempts" json:"attempts"`
	ResponseStatus  int            `gorm:"column:response_status" json:"response_status,omitempty"`
	ResponseBody    string         `gorm:"column:response_body" json:"response_body,omitempty"`
	LastAttemptAt   *time.Time     `gorm:"column:last_attempt_at" json:"last_attempt_at,omitempty"`
	NextRetryAt     *time.Time     `gorm:"index;column:next_retry_at" json:"next_retry_at,omitempty"`
	DeliveredAt     *time.Time     `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_event"
}
