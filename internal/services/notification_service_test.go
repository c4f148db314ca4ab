package services

import (
	"database/sql"
	"testing"
	"time"

	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationServiceDisabledByDefault(t *testing.T) {
	svc := NewNotificationService(&config.Config{}, observability.NewLogger(nil))
	assert.False(t, svc.IsEnabled())

	// Sending while disabled is a no-op, not an error
	record := &models.RepairResult{ID: 1, ProductID: 5, Type: "R", Date: time.Now()}
	assert.NoError(t, svc.NotifyRepairResultStored(t.Context(), record, nil))
}

func TestNotificationRecipientFiltering(t *testing.T) {
	cfg := &config.Config{}
	cfg.Email.Enabled = true
	cfg.Email.SMTP.Host = "smtp.example.com"
	cfg.Email.Recipients = []string{"workshop@example.com", "not-an-address", "lead@example.com"}

	svc := NewNotificationService(cfg, observability.NewLogger(nil))
	assert.Equal(t, []string{"workshop@example.com", "lead@example.com"}, svc.recipients())
	assert.True(t, svc.IsEnabled())

	// Only invalid recipients left means nothing can be sent
	cfg.Email.Recipients = []string{"not-an-address"}
	assert.False(t, svc.IsEnabled())
}

func TestNotificationBodyRendersRecord(t *testing.T) {
	svc := NewNotificationService(&config.Config{}, observability.NewLogger(nil))

	record := &models.RepairResult{
		ID:              1,
		ProductID:       5,
		Type:            "P",
		Date:            time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Notes:           sql.NullString{String: "bent pin", Valid: true},
		FaultFeatureIDs: []int{10, 11},
		RepairActionIDs: []int{20},
		PhotoIDs:        []int{3},
	}

	body, err := svc.renderBody(record, "Widget X")
	require.NoError(t, err)
	assert.Contains(t, body, "Widget X")
	assert.Contains(t, body, "2024-03-15")
	assert.Contains(t, body, "Partial repair")
	assert.Contains(t, body, "bent pin")
}
