package automation

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

func setupAutomationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS automation_logs (
  id TEXT PRIMARY KEY,
  automation_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'running',
  order_id TEXT,
  details TEXT,
  error_message TEXT,
  started_at DATETIME,
  completed_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_automation_logs_order_type
  ON automation_logs (order_id, automation_type)
  WHERE order_id IS NOT NULL AND status <> 'failed';`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestStartIsSingleWinnerPerOrder(t *testing.T) {
	repo := NewRepository(setupAutomationTestDB(t))
	ctx := context.Background()
	orderID := uuid.New()

	first, err := repo.Start(ctx, enums.AutomationOrderFulfillment, &orderID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.AutomationStatusRunning, first.Status)

	_, err = repo.Start(ctx, enums.AutomationOrderFulfillment, &orderID, nil)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	// a different automation type for the same order is unaffected
	_, err = repo.Start(ctx, enums.AutomationTrackingSync, &orderID, nil)
	require.NoError(t, err)
}

func TestStartAllowsRetryAfterFailure(t *testing.T) {
	repo := NewRepository(setupAutomationTestDB(t))
	ctx := context.Background()
	orderID := uuid.New()

	first, err := repo.Start(ctx, enums.AutomationOrderFulfillment, &orderID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, first.ID, "supplier timeout"))

	// failed rows fall outside the unique index
	second, err := repo.Start(ctx, enums.AutomationOrderFulfillment, &orderID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStartUnscopedRunsNeverConflict(t *testing.T) {
	repo := NewRepository(setupAutomationTestDB(t))
	ctx := context.Background()

	_, err := repo.Start(ctx, enums.AutomationInventorySync, nil, nil)
	require.NoError(t, err)
	_, err = repo.Start(ctx, enums.AutomationInventorySync, nil, nil)
	require.NoError(t, err)
}

func TestMarkCompletedStoresDetails(t *testing.T) {
	repo := NewRepository(setupAutomationTestDB(t))
	ctx := context.Background()
	orderID := uuid.New()

	row, err := repo.Start(ctx, enums.AutomationOrderFulfillment, &orderID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(ctx, row.ID, types.JSONMap{"supplier_order_id": "sup-1"}))

	gate, err := repo.FindGate(ctx, orderID, enums.AutomationOrderFulfillment)
	require.NoError(t, err)
	require.NotNil(t, gate)
	assert.Equal(t, enums.AutomationStatusCompleted, gate.Status)
	assert.NotNil(t, gate.CompletedAt)
	assert.Equal(t, "sup-1", gate.Details["supplier_order_id"])
}

func TestListFiltersByTypeAndStatus(t *testing.T) {
	repo := NewRepository(setupAutomationTestDB(t))
	ctx := context.Background()

	run, err := repo.Start(ctx, enums.AutomationPriceSync, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(ctx, run.ID, nil))
	_, err = repo.Start(ctx, enums.AutomationInventorySync, nil, nil)
	require.NoError(t, err)

	priceSync := enums.AutomationPriceSync
	completed := enums.AutomationStatusCompleted
	rows, err := repo.List(ctx, ListFilter{AutomationType: &priceSync, Status: &completed})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, run.ID, rows[0].ID)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
