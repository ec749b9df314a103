package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db/models"
	"github.com/harborclub/harborclub-backend/pkg/enums"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

// Service is the sink for deferred side effects. It runs strictly after
// the claim transaction committed, so it writes on its own connection and
// its failures never affect the recorded event.
type Service struct {
	conn        *gorm.DB
	broadcaster Broadcaster
	crm         *CRMClient
	logger      *logger.Logger
}

// NewService wires the side-effect sink. broadcaster and crm may be nil,
// which disables the respective channel.
func NewService(conn *gorm.DB, broadcaster Broadcaster, crm *CRMClient, logg *logger.Logger) *Service {
	return &Service{conn: conn, broadcaster: broadcaster, crm: crm, logger: logg}
}

// NotifyMember stores an in-app notification for the member.
func (s *Service) NotifyMember(ctx context.Context, memberID uuid.UUID, notificationType enums.NotificationType, title, body string, data any) error {
	var encoded json.RawMessage
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding notification data")
		}
		encoded = raw
	}

	row := models.Notification{
		MemberID: memberID,
		Type:     notificationType,
		Title:    title,
		Body:     body,
		Data:     encoded,
	}
	if err := s.conn.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing notification")
	}
	return nil
}

// BroadcastMemberEvent publishes the event on the member-events topic.
func (s *Service) BroadcastMemberEvent(ctx context.Context, eventType string, payload any) error {
	if s.broadcaster == nil {
		return nil
	}
	return s.broadcaster.Broadcast(ctx, eventType, payload)
}

// SyncCRM pushes the resource's latest state to the CRM.
func (s *Service) SyncCRM(ctx context.Context, resourceType, resourceID string, payload any) error {
	return s.crm.Sync(ctx, resourceType, resourceID, payload)
}
