package ingest

import (
	"context"

	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db/models"
)

// Repo persists the claim ledger and the per-resource event history. All
// methods run on the caller's transaction handle so claim, history, and
// mutation commit or roll back together.
type Repo struct{}

// NewRepo returns the ingest persistence layer.
func NewRepo() *Repo {
	return &Repo{}
}

// Claim inserts the processed-event row for this event id. The unique index
// on event_id makes the insert the cross-process idempotence gate: exactly
// one concurrent transaction wins, every other one gets a unique violation.
func (r *Repo) Claim(ctx context.Context, tx *gorm.DB, event Event) error {
	row := models.ProcessedEvent{
		EventID:   event.ID,
		EventType: event.Type,
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// AppliedEventTypes returns the event types already applied to the resource,
// skipping audit-only rows.
func (r *Repo) AppliedEventTypes(ctx context.Context, tx *gorm.DB, ref ResourceRef) ([]models.ResourceEvent, error) {
	var rows []models.ResourceEvent
	err := tx.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ? AND applied = ?", ref.Type, ref.ID, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendHistory records the event against its resource. applied=false rows
// are the audit trail for stale arrivals; they never raise the resource's
// applied priority.
func (r *Repo) AppendHistory(ctx context.Context, tx *gorm.DB, event Event, applied bool) error {
	row := models.ResourceEvent{
		ResourceType: event.Resource.Type,
		ResourceID:   event.Resource.ID,
		EventType:    event.Type,
		Applied:      applied,
	}
	return tx.WithContext(ctx).Create(&row).Error
}
