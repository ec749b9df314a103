package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// ProcessedEvent is the durable proof that a gateway event was claimed.
// The unique index on event_id is the idempotence gate: the row is written
// inside the claim transaction, and never updated or deleted afterward.
type ProcessedEvent struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     string                 `gorm:"column:event_id;not null;uniqueIndex:ux_processed_events_event_id"`
	EventType   enums.GatewayEventType `gorm:"column:event_type;not null"`
	ProcessedAt time.Time              `gorm:"column:processed_at;autoCreateTime"`
}
