package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborclub/harborclub-backend/pkg/db/models"
	"github.com/harborclub/harborclub-backend/pkg/enums"
)

func setupNotifyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  member_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT,
  data TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

type recordingBroadcaster struct {
	eventTypes []string
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, eventType string, payload any) error {
	b.eventTypes = append(b.eventTypes, eventType)
	return nil
}

func TestNotifyMemberStoresRow(t *testing.T) {
	conn := setupNotifyTestDB(t)
	svc := NewService(conn, nil, nil, nil)
	memberID := uuid.New()

	err := svc.NotifyMember(context.Background(), memberID, enums.NotificationInvoicePaid,
		"Invoice paid", "Your August invoice has been paid.", map[string]string{"invoice_id": "inv_1"})
	require.NoError(t, err)

	var row models.Notification
	require.NoError(t, conn.First(&row, "member_id = ?", memberID).Error)
	assert.Equal(t, enums.NotificationInvoicePaid, row.Type)
	assert.Equal(t, "Invoice paid", row.Title)
	assert.JSONEq(t, `{"invoice_id":"inv_1"}`, string(row.Data))
}

func TestBroadcastMemberEventUsesBroadcaster(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	svc := NewService(nil, broadcaster, nil, nil)

	require.NoError(t, svc.BroadcastMemberEvent(context.Background(), "invoice.paid", map[string]string{"id": "inv_1"}))
	assert.Equal(t, []string{"invoice.paid"}, broadcaster.eventTypes)
}

func TestBroadcastMemberEventNilBroadcasterIsNoop(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	require.NoError(t, svc.BroadcastMemberEvent(context.Background(), "invoice.paid", nil))
}

func TestSyncCRMNilClientIsNoop(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	require.NoError(t, svc.SyncCRM(context.Background(), "invoice", "inv_1", nil))
}
