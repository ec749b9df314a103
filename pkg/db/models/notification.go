package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/harborclub/harborclub-backend/pkg/enums"
)

// Notification is a member-facing message produced by a deferred action
// after the originating claim transaction committed.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID  uuid.UUID              `gorm:"column:member_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body"`
	Data      json.RawMessage        `gorm:"column:data;type:jsonb"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
