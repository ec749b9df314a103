package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// ResourceEvent is one entry in a resource's append-only event history.
// Applied is false for events recorded only for audit (logically stale
// arrivals whose mutation was skipped). Rows are never mutated.
type ResourceEvent struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ResourceType enums.ResourceType     `gorm:"column:resource_type;not null;index:ix_resource_events_ref"`
	ResourceID   string                 `gorm:"column:resource_id;not null;index:ix_resource_events_ref"`
	EventType    enums.GatewayEventType `gorm:"column:event_type;not null"`
	Applied      bool                   `gorm:"column:applied;not null;default:true"`
	ProcessedAt  time.Time              `gorm:"column:processed_at;autoCreateTime"`
}
